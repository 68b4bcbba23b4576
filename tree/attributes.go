package tree

import (
	"fmt"
	"strings"
)

// Attributes is the parsed form of a node's attribute string: ordered,
// unique keys with string values.
type Attributes struct {
	keys   []string
	values map[string]string
}

// ParseAttributes reads a pipe-delimited key=value list. The empty
// string has no attributes.
func ParseAttributes(s string) (Attributes, error) {
	a := Attributes{}
	if s == "" {
		return a, nil
	}

	for _, pair := range strings.Split(s, "|") {
		eq := strings.IndexByte(pair, '=')
		if eq <= 0 {
			return Attributes{}, fmt.Errorf("attribute %q is not key=value", pair)
		}
		key, value := pair[:eq], pair[eq+1:]
		if _, dup := a.values[key]; dup {
			return Attributes{}, fmt.Errorf("attribute %s given twice", key)
		}
		a.Set(key, value)
	}
	return a, nil
}

func (a *Attributes) Set(key, value string) {
	if a.values == nil {
		a.values = map[string]string{}
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

func (a Attributes) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

func (a Attributes) Keys() []string {
	return append([]string(nil), a.keys...)
}

func (a Attributes) Len() int {
	return len(a.keys)
}

// String renders the attributes in insertion order.
func (a Attributes) String() string {
	parts := make([]string, len(a.keys))
	for i, k := range a.keys {
		parts[i] = k + "=" + a.values[k]
	}
	return strings.Join(parts, "|")
}
