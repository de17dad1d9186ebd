package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/chenglch/xcat3client/pkg"
	"github.com/chenglch/xcat3client/pkg/batch"
	"github.com/chenglch/xcat3client/pkg/contrib"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const nodesPath = "nodes"

var (
	// PowerStates are the accepted set-power targets
	PowerStates = []string{"on", "off", "reboot"}
	// BootDevices are the accepted set-boot-device targets
	BootDevices = []string{"net", "disk", "cdrom"}
	// ProvisionTargets are the accepted set-provision targets
	ProvisionTargets = []string{"diskfull", "diskless", "dhcp", "hosts"}

	// ErrNoNodes is returned for a bulk operation without nodes
	ErrNoNodes = errors.New("no node given")
)

// NodeManager drives the node resources of the xCAT3 service
type NodeManager struct {
	http *HTTPClient
}

// NewNodeManager creates a new node manager
func NewNodeManager(c *HTTPClient) (*NodeManager, error) {
	return &NodeManager{http: c}, nil
}

func withFields(path string, fields []string) string {
	if len(fields) == 0 {
		return path
	}
	return path + "?fields=" + url.QueryEscape(joinFields(fields))
}

func joinFields(fields []string) string {
	return strings.Join(fields, ",")
}

// List returns the names of all registered nodes
func (m *NodeManager) List(ctx context.Context) ([]string, error) {
	var resp struct {
		Nodes []string `json:"nodes"`
	}
	if err := m.http.Get(ctx, nodesPath, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// Show returns one node. When the node references an OS image its name is
// added as the "osimage" attribute.
func (m *NodeManager) Show(ctx context.Context, name string, fields []string) (Record, error) {
	fields = aliasFields(WithField(fields, "name"))

	var node Record
	if err := m.http.Get(ctx, withFields(nodesPath+"/"+url.PathEscape(name), fields), nil, &node); err != nil {
		return nil, err
	}

	if id := node.Text("osimage_id"); id != "" {
		var image Record
		if err := m.http.Get(ctx, "osimages/get_by_id?id="+url.QueryEscape(id), nil, &image); err != nil {
			log.Warnf("Could not resolve osimage %s of node %s: %v", id, name, err)
		} else {
			node["osimage"] = image.Text("name")
		}
	}
	return node, nil
}

// Get returns the records of several nodes in one request
func (m *NodeManager) Get(ctx context.Context, names []string, fields []string) ([]Record, error) {
	var resp struct {
		Nodes []Record `json:"nodes"`
	}
	if err := m.http.Get(ctx, withFields(nodesPath+"/info", aliasFields(WithField(fields, "name"))), NewNodesRequest(names), &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// Export returns the enrolment records of names, ready to be imported
func (m *NodeManager) Export(ctx context.Context, names []string) ([]*Node, error) {
	var resp struct {
		Nodes []*Node `json:"nodes"`
	}
	if err := m.http.Get(ctx, nodesPath+"/info", NewNodesRequest(names), &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// Create enrolls nodes in one request
func (m *NodeManager) Create(ctx context.Context, nodes []*Node) (map[string]string, error) {
	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			return nil, err
		}
	}
	return m.results(ctx, m.http.Post, nodesPath, &CreateRequest{Nodes: nodes})
}

// Delete unregisters nodes in one request
func (m *NodeManager) Delete(ctx context.Context, names []string) (map[string]string, error) {
	return m.results(ctx, m.http.Delete, nodesPath, NewNodesRequest(names))
}

// Update applies patches to nodes in one request
func (m *NodeManager) Update(ctx context.Context, names []string, patches []Patch) (map[string]string, error) {
	body := &UpdateRequest{Nodes: NewNodesRequest(names).Nodes, Patches: patches}
	return m.results(ctx, m.http.Patch, nodesPath, body)
}

// SetPower changes the power state of nodes
func (m *NodeManager) SetPower(ctx context.Context, names []string, state string) (map[string]string, error) {
	if err := oneOf("power-state", state, PowerStates); err != nil {
		return nil, err
	}
	return m.results(ctx, m.http.Put, nodesPath+"/power?target="+url.QueryEscape(state), NewNodesRequest(names))
}

// GetPower reads the power state of nodes
func (m *NodeManager) GetPower(ctx context.Context, names []string) (map[string]string, error) {
	return m.results(ctx, m.http.Get, nodesPath+"/power", NewNodesRequest(names))
}

// SetBootDevice changes the next boot device of nodes
func (m *NodeManager) SetBootDevice(ctx context.Context, names []string, device string) (map[string]string, error) {
	if err := oneOf("boot-device", device, BootDevices); err != nil {
		return nil, err
	}
	return m.results(ctx, m.http.Put, nodesPath+"/boot_device?target="+url.QueryEscape(device), NewNodesRequest(names))
}

// GetBootDevice reads the next boot device of nodes
func (m *NodeManager) GetBootDevice(ctx context.Context, names []string) (map[string]string, error) {
	return m.results(ctx, m.http.Get, nodesPath+"/boot_device", NewNodesRequest(names))
}

// ProvisionOptions are the optional parameters of set-provision
type ProvisionOptions struct {
	OSImage string
	Subnet  string
}

// SetProvision starts the deployment of nodes. An empty target selects
// "nodeset".
func (m *NodeManager) SetProvision(ctx context.Context, names []string, target string, opts ProvisionOptions) (map[string]string, error) {
	if target == "" {
		target = "nodeset"
	} else if err := oneOf("target", target, ProvisionTargets); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("target", target)
	if opts.OSImage != "" {
		query.Set("osimage", opts.OSImage)
	}
	if opts.Subnet != "" {
		query.Set("subnet", opts.Subnet)
	}
	return m.results(ctx, m.http.Put, nodesPath+"/provision?"+query.Encode(), NewNodesRequest(names))
}

func nodeName(name string) string {
	return name
}

type requestFunc func(ctx context.Context, path string, body, out interface{}) error

func (m *NodeManager) results(ctx context.Context, do requestFunc, path string, body interface{}) (map[string]string, error) {
	var resp NodeResults
	if err := do(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Nodes == nil {
		resp.Nodes = map[string]string{}
	}
	return resp.Nodes, nil
}

func oneOf(arg, value string, allowed []string) error {
	if lo.Contains(allowed, value) {
		return nil
	}
	return pkg.NewInvalidArgument(arg, fmt.Errorf("%q is not one of %s", value, strings.Join(allowed, ", ")))
}

func aliasFields(fields []string) []string {
	return lo.Map(fields, func(f string, _ int) string {
		if target, ok := NodeFieldAliases[f]; ok {
			return target
		}
		return f
	})
}

/**
 * Bulk operations, split into batches above the configured threshold.
 */

func (m *NodeManager) bulk(ctx context.Context, names []string, op contrib.Operation, opts batch.Options, call func(context.Context, []string) (map[string]string, error)) (*batch.Result, error) {
	if len(names) == 0 {
		return nil, pkg.NewInvalidArgument("nodes", ErrNoNodes)
	}
	opts.Operation = op
	return batch.Run(ctx, names, nodeName, func(ctx context.Context, b batch.Batch[string]) (map[string]string, error) {
		return call(ctx, b.Items)
	}, opts)
}

// BulkCreate enrolls nodes
func (m *NodeManager) BulkCreate(ctx context.Context, nodes []*Node, op contrib.Operation, opts batch.Options) (*batch.Result, error) {
	if len(nodes) == 0 {
		return nil, pkg.NewInvalidArgument("nodes", ErrNoNodes)
	}
	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			return nil, err
		}
	}
	opts.Operation = op
	return batch.Run(ctx, nodes, func(n *Node) string { return n.Name }, func(ctx context.Context, b batch.Batch[*Node]) (map[string]string, error) {
		return m.Create(ctx, b.Items)
	}, opts)
}

// BulkDelete unregisters nodes
func (m *NodeManager) BulkDelete(ctx context.Context, names []string, opts batch.Options) (*batch.Result, error) {
	return m.bulk(ctx, names, contrib.OperationDelete, opts, m.Delete)
}

// BulkUpdate applies patches to nodes
func (m *NodeManager) BulkUpdate(ctx context.Context, names []string, patches []Patch, opts batch.Options) (*batch.Result, error) {
	if len(patches) == 0 {
		return nil, pkg.NewInvalidArgument("attributes", errors.New("no attribute given"))
	}
	return m.bulk(ctx, names, contrib.OperationUpdate, opts, func(ctx context.Context, items []string) (map[string]string, error) {
		return m.Update(ctx, items, patches)
	})
}

// BulkSetPower changes the power state of nodes
func (m *NodeManager) BulkSetPower(ctx context.Context, names []string, state string, opts batch.Options) (*batch.Result, error) {
	if err := oneOf("power-state", state, PowerStates); err != nil {
		return nil, err
	}
	return m.bulk(ctx, names, contrib.OperationSetPower, opts, func(ctx context.Context, items []string) (map[string]string, error) {
		return m.SetPower(ctx, items, state)
	})
}

// BulkGetPower reads the power state of nodes
func (m *NodeManager) BulkGetPower(ctx context.Context, names []string, opts batch.Options) (*batch.Result, error) {
	return m.bulk(ctx, names, contrib.OperationGetPower, opts, m.GetPower)
}

// BulkSetBootDevice changes the next boot device of nodes
func (m *NodeManager) BulkSetBootDevice(ctx context.Context, names []string, device string, opts batch.Options) (*batch.Result, error) {
	if err := oneOf("boot-device", device, BootDevices); err != nil {
		return nil, err
	}
	return m.bulk(ctx, names, contrib.OperationSetBootDevice, opts, func(ctx context.Context, items []string) (map[string]string, error) {
		return m.SetBootDevice(ctx, items, device)
	})
}

// BulkGetBootDevice reads the next boot device of nodes
func (m *NodeManager) BulkGetBootDevice(ctx context.Context, names []string, opts batch.Options) (*batch.Result, error) {
	return m.bulk(ctx, names, contrib.OperationGetBootDevice, opts, m.GetBootDevice)
}

// BulkSetProvision starts the deployment of nodes
func (m *NodeManager) BulkSetProvision(ctx context.Context, names []string, target string, provision ProvisionOptions, opts batch.Options) (*batch.Result, error) {
	if target != "" {
		if err := oneOf("target", target, ProvisionTargets); err != nil {
			return nil, err
		}
	}
	return m.bulk(ctx, names, contrib.OperationSetProvision, opts, func(ctx context.Context, items []string) (map[string]string, error) {
		return m.SetProvision(ctx, items, target, provision)
	})
}
