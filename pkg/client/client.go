// Package client is the SDK of the xCAT3 REST service.
package client

// Client bundles the managers of every xCAT3 resource over one shared
// HTTPClient.
type Client struct {
	HTTP *HTTPClient

	Node    *NodeManager
	Network *ResourceManager
	Nic     *ResourceManager
	OSImage *ResourceManager
	Passwd  *ResourceManager
	Service *ResourceManager
}

// NewClient creates a new client
func NewClient(cfg Config) (*Client, error) {
	h, err := NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{HTTP: h}
	if c.Node, err = NewNodeManager(h); err != nil {
		return nil, err
	}

	for _, m := range []struct {
		target   **ResourceManager
		resource Resource
	}{
		{&c.Network, Networks},
		{&c.Nic, Nics},
		{&c.OSImage, OSImages},
		{&c.Passwd, Passwds},
		{&c.Service, Services},
	} {
		if *m.target, err = NewResourceManager(h, m.resource); err != nil {
			return nil, err
		}
	}
	return c, nil
}
