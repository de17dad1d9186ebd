package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chenglch/xcat3client/pkg"
)

// NodeRef names a node in a request body
type NodeRef struct {
	Name string `json:"name"`
}

// NodesRequest is the body of the bulk requests that target nodes by name
type NodesRequest struct {
	Nodes []NodeRef `json:"nodes"`
}

// NewNodesRequest builds the request body for names
func NewNodesRequest(names []string) *NodesRequest {
	refs := make([]NodeRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, NodeRef{Name: name})
	}
	return &NodesRequest{Nodes: refs}
}

// UpdateRequest applies the same patch list to every node
type UpdateRequest struct {
	Nodes   []NodeRef `json:"nodes"`
	Patches []Patch   `json:"patches"`
}

// CreateRequest enrolls nodes
type CreateRequest struct {
	Nodes []*Node `json:"nodes"`
}

// NodeResults is the per-node outcome returned by every bulk request
type NodeResults struct {
	Nodes map[string]string `json:"nodes"`
}

// Record is a resource as returned by the service
type Record map[string]interface{}

// Text returns the string value of key, or an empty string
func (r Record) Text(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Nic describes one network interface of a node
type Nic map[string]interface{}

// NicsInfo is the network information of a node
type NicsInfo struct {
	Nics []Nic `json:"nics" yaml:"nics"`
}

var nodeFields = map[string]bool{
	"name":         true,
	"arch":         true,
	"netboot":      true,
	"mgt":          true,
	"type":         true,
	"control_info": true,
	"nics_info":    true,
}

// Node is the record enrolled for one node. Attributes the client does not
// know are carried in Extra and sent unchanged.
type Node struct {
	Name        string                 `json:"name" yaml:"name"`
	Arch        string                 `json:"arch,omitempty" yaml:"arch,omitempty"`
	Netboot     string                 `json:"netboot,omitempty" yaml:"netboot,omitempty"`
	Mgt         string                 `json:"mgt,omitempty" yaml:"mgt,omitempty"`
	Type        string                 `json:"type,omitempty" yaml:"type,omitempty"`
	ControlInfo map[string]interface{} `json:"control_info,omitempty" yaml:"control_info,omitempty"`
	NicsInfo    *NicsInfo              `json:"nics_info,omitempty" yaml:"nics_info,omitempty"`
	Extra       map[string]interface{} `json:"-" yaml:",inline"`
}

// ErrEmptyName is returned for a node without a name
var ErrEmptyName = errors.New("node name is required")

// Validate checks the node before it is sent to the service
func (n *Node) Validate() error {
	if n.Name == "" {
		return pkg.NewInvalidArgument("name", ErrEmptyName)
	}
	for key := range n.Extra {
		if nodeFields[key] {
			return pkg.NewInvalidArgument(n.Name, fmt.Errorf("extra attribute %q shadows a node field", key))
		}
	}
	return nil
}

// Compact drops empty attributes
func (n *Node) Compact() {
	for key, value := range n.Extra {
		if isEmpty(value) {
			delete(n.Extra, key)
		}
	}
	if len(n.ControlInfo) == 0 {
		n.ControlInfo = nil
	}
	if n.NicsInfo != nil && len(n.NicsInfo.Nics) == 0 {
		n.NicsInfo = nil
	}
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}

type nodeAlias Node

// MarshalJSON merges Extra into the node object
func (n Node) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(nodeAlias(n))
	if err != nil {
		return nil, err
	}
	if len(n.Extra) == 0 {
		return base, nil
	}

	merged := map[string]interface{}{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, value := range n.Extra {
		if _, ok := merged[key]; !ok && !nodeFields[key] {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON keeps unknown attributes in Extra
func (n *Node) UnmarshalJSON(data []byte) error {
	var alias nodeAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range nodeFields {
		delete(raw, key)
	}
	if len(raw) > 0 {
		alias.Extra = raw
	}

	*n = Node(alias)
	return nil
}
