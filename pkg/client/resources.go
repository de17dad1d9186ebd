package client

import (
	"context"
	"net/url"
)

// Resource describes one of the flat resource collections of the service
type Resource struct {
	// Path is the URL path of the collection.
	Path string
	// Collection is the key holding the records in a list response.
	Collection string
	// Key is the attribute naming a record.
	Key string
	// Kind labels records in list output.
	Kind string
	// Fields are the attributes accepted on create and update.
	Fields []string
	// Required must be given on create.
	Required []string
}

var (
	// Networks are the provisioning networks
	Networks = Resource{
		Path:       "networks",
		Collection: "networks",
		Key:        "name",
		Kind:       "network",
		Fields:     []string{"subnet", "netmask", "gateway", "dhcpserver", "dynamic_range", "nameservers", "domain"},
	}
	// Nics are the network interfaces of nodes
	Nics = Resource{
		Path:       "nics",
		Collection: "nics",
		Key:        "uuid",
		Kind:       "nic",
		Fields:     []string{"uuid", "mac", "name", "ip", "netmask", "extra", "node"},
		Required:   []string{"mac", "node"},
	}
	// OSImages are the deployable operating system images
	OSImages = Resource{
		Path:       "osimages",
		Collection: "images",
		Key:        "name",
		Kind:       "osimage",
		Fields:     []string{"ver", "arch", "distro", "rootfstype"},
	}
	// Passwds are the credentials used during deployment
	Passwds = Resource{
		Path:       "passwds",
		Collection: "passwds",
		Key:        "key",
		Kind:       "passwd",
		Fields:     []string{"username", "password", "crypt_method"},
	}
	// Services are the registered xCAT3 service instances
	Services = Resource{
		Path:       "services",
		Collection: "services",
		Key:        "hostname",
		Kind:       "service",
	}
)

// ResourceManager provides CRUD operations on one resource collection
type ResourceManager struct {
	http     *HTTPClient
	resource Resource
}

// NewResourceManager creates a new resource manager
func NewResourceManager(c *HTTPClient, resource Resource) (*ResourceManager, error) {
	return &ResourceManager{http: c, resource: resource}, nil
}

// Resource returns the managed resource
func (m *ResourceManager) Resource() Resource {
	return m.resource
}

// List returns every record of the collection
func (m *ResourceManager) List(ctx context.Context) ([]Record, error) {
	var resp map[string][]Record
	if err := m.http.Get(ctx, m.resource.Path, nil, &resp); err != nil {
		return nil, err
	}
	return resp[m.resource.Collection], nil
}

// Show returns one record. The key attribute is always requested.
func (m *ResourceManager) Show(ctx context.Context, name string, fields []string) (Record, error) {
	var record Record
	path := withFields(m.resource.Path+"/"+url.PathEscape(name), WithField(fields, m.resource.Key))
	if err := m.http.Get(ctx, path, nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// Create registers a record built from KEY=VALUE arguments. A non-empty
// name is stored under the key attribute.
func (m *ResourceManager) Create(ctx context.Context, name string, args []string) (Record, error) {
	attrs, err := ParseAttributes(args, m.resource.Fields)
	if err != nil {
		return nil, err
	}
	if name != "" {
		attrs[m.resource.Key] = name
	}
	if err := RequireAttributes(attrs, m.resource.Required); err != nil {
		return nil, err
	}
	return m.CreateRecord(ctx, attrs)
}

// CreateRecord registers attrs without validation
func (m *ResourceManager) CreateRecord(ctx context.Context, attrs map[string]interface{}) (Record, error) {
	var record Record
	if err := m.http.Post(ctx, m.resource.Path, attrs, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes one record
func (m *ResourceManager) Delete(ctx context.Context, name string) error {
	return m.http.Delete(ctx, m.resource.Path+"/"+url.PathEscape(name), nil, nil)
}

// Update applies PATH=VALUE arguments to one record
func (m *ResourceManager) Update(ctx context.Context, name string, args []string) (Record, error) {
	patches, err := ParsePatches(args, nil)
	if err != nil {
		return nil, err
	}
	var record Record
	if err := m.http.Patch(ctx, m.resource.Path+"/"+url.PathEscape(name), patches, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetByMAC returns the nic with the given MAC address
func (m *ResourceManager) GetByMAC(ctx context.Context, mac string) (Record, error) {
	var record Record
	if err := m.http.Get(ctx, m.resource.Path+"/get_by_mac?mac="+url.QueryEscape(mac), nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetByID returns the record with the given id
func (m *ResourceManager) GetByID(ctx context.Context, id string) (Record, error) {
	var record Record
	if err := m.http.Get(ctx, m.resource.Path+"/get_by_id?id="+url.QueryEscape(id), nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetByHostname returns the service running on hostname
func (m *ResourceManager) GetByHostname(ctx context.Context, hostname string, fields []string) (Record, error) {
	path := m.resource.Path + "/hostname?name=" + url.QueryEscape(hostname)
	if len(fields) > 0 {
		path += "&fields=" + url.QueryEscape(joinFields(fields))
	}
	var record Record
	if err := m.http.Get(ctx, path, nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}
