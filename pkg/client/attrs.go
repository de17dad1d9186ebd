package client

import (
	"fmt"
	"strings"

	"github.com/chenglch/xcat3client/pkg"
	"github.com/samber/lo"
)

// ParseAttributes converts KEY=VALUE arguments into an attribute map. Keys
// outside valid are rejected.
func ParseAttributes(args []string, valid []string) (map[string]interface{}, error) {
	attrs := make(map[string]interface{}, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, pkg.NewInvalidArgument(arg, errPathValue)
		}
		if !lo.Contains(valid, key) {
			return nil, pkg.NewInvalidArgument(key, fmt.Errorf("unsupported attribute, valid fields are %s", strings.Join(valid, ",")))
		}
		attrs[key] = value
	}
	return attrs, nil
}

// RequireAttributes checks that every required key is present
func RequireAttributes(attrs map[string]interface{}, required []string) error {
	for _, key := range required {
		if _, ok := attrs[key]; !ok {
			return pkg.NewInvalidArgument(key, fmt.Errorf("could not find required field %s", key))
		}
	}
	return nil
}

// ParseKeyValues parses "k1=v1,k2=v2". When coerce is set boolean-like
// values become bools.
func ParseKeyValues(s string, coerce bool) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for _, kv := range strings.Split(s, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, pkg.NewInvalidArgument(kv, fmt.Errorf("expected key=value"))
		}
		if coerce {
			out[key] = StrToBool(value)
		} else {
			out[key] = value
		}
	}
	return out, nil
}

// StrToBool returns a bool for yes/true/y/1 and no/false/n/0, any other
// value is returned unchanged.
func StrToBool(v string) interface{} {
	switch strings.ToLower(v) {
	case "yes", "true", "y", "1":
		return true
	case "no", "false", "0", "n":
		return false
	}
	return v
}

// WithField appends key to fields unless it is already listed. An empty
// field list stays empty so the service returns every field.
func WithField(fields []string, key string) []string {
	if len(fields) == 0 || lo.Contains(fields, key) {
		return fields
	}
	return append(fields, key)
}

// SplitFields parses a comma separated field list
func SplitFields(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(f string, _ int) string {
		return strings.TrimSpace(f)
	}))
}
