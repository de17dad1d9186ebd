package node

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chenglch/xcat3client/pkg/client"
	"gopkg.in/yaml.v3"
)

// nodeFile is the layout of export and import data files
type nodeFile struct {
	Nodes []*client.Node `json:"nodes" yaml:"nodes"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func encodeNodes(path string, nodes []*client.Node) ([]byte, error) {
	data := nodeFile{Nodes: nodes}
	if isYAML(path) {
		return yaml.Marshal(&data)
	}
	return json.MarshalIndent(&data, "", "    ")
}

// readNodes loads a data file. Empty attributes are dropped.
func readNodes(path string) ([]*client.Node, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data nodeFile
	if isYAML(path) {
		err = yaml.Unmarshal(buf, &data)
	} else {
		err = json.Unmarshal(buf, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}

	for _, n := range data.Nodes {
		if n == nil {
			return nil, fmt.Errorf("could not parse %s: empty node entry", path)
		}
		n.Compact()
	}
	return data.Nodes, nil
}
