package client

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/chenglch/xcat3client/pkg"
)

// NodeFieldAliases maps the short path prefixes accepted on the command
// line to the node attributes they stand for.
var NodeFieldAliases = map[string]string{
	"control": "control_info",
	"nics":    "nics_info",
}

// Patch is one JSON patch operation
type Patch struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// MarshalJSON omits the value of remove operations only, so that false and
// zero values are still sent.
func (p Patch) MarshalJSON() ([]byte, error) {
	if p.Op == PatchRemove {
		return json.Marshal(struct {
			Op   string `json:"op"`
			Path string `json:"path"`
		}{p.Op, p.Path})
	}
	type plain Patch
	return json.Marshal(plain(p))
}

const (
	// PatchAdd adds or replaces a value
	PatchAdd = "add"
	// PatchRemove removes a value
	PatchRemove = "remove"
)

var errPathValue = errors.New("attributes must be a list of PATH=VALUE")

// ParsePatches converts PATH=VALUE arguments into patch operations. A path
// gets a leading "/" when it has none and its first segment is replaced
// using aliases. The value is decoded as JSON when it parses, otherwise it
// is used as a string. An empty value removes the attribute.
func ParsePatches(args []string, aliases map[string]string) ([]Patch, error) {
	patches := make([]Patch, 0, len(args))
	for _, arg := range args {
		path, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, pkg.NewInvalidArgument(arg, errPathValue)
		}
		path = aliasPath(normalisePath(path), aliases)
		if path == "/" {
			return nil, pkg.NewInvalidArgument(arg, errors.New("empty attribute path"))
		}

		if raw == "" {
			patches = append(patches, Patch{Op: PatchRemove, Path: path})
			continue
		}
		patches = append(patches, Patch{Op: PatchAdd, Path: path, Value: decodeValue(raw)})
	}
	return patches, nil
}

func normalisePath(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func aliasPath(path string, aliases map[string]string) string {
	segments := strings.SplitN(path, "/", 3)
	if target, ok := aliases[segments[1]]; ok {
		segments[1] = target
	}
	return strings.Join(segments, "/")
}

func decodeValue(raw string) interface{} {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}
