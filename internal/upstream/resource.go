package upstream

import (
	"encoding/json"
	"strconv"
)

// Resource is one loosely typed upstream JSON object. The probe methods
// never panic on missing or mistyped fields.
type Resource map[string]any

// AsResource converts a decoded JSON value to a Resource, or nil
func AsResource(v any) Resource {
	if m, ok := v.(map[string]any); ok {
		return Resource(m)
	}
	return nil
}

// Lookup walks nested maps along path and reports whether the final key
// is present. The value may still be nil (an explicit JSON null).
func (r Resource) Lookup(path ...string) (any, bool) {
	if r == nil || len(path) == 0 {
		return nil, false
	}
	cur := r
	for i, key := range path {
		if i == len(path)-1 {
			v, ok := cur[key]
			return v, ok
		}
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// Get returns the value at path, or nil when any step is missing
func (r Resource) Get(path ...string) any {
	v, _ := r.Lookup(path...)
	return v
}

// String returns the string at path, or "" when absent or not a string
func (r Resource) String(path ...string) string {
	s, _ := r.Get(path...).(string)
	return s
}

// Map returns the object at path, or nil
func (r Resource) Map(path ...string) Resource {
	return AsResource(r.Get(path...))
}

// Slice returns the array at path, or nil
func (r Resource) Slice(path ...string) []any {
	s, _ := r.Get(path...).([]any)
	return s
}

// CoerceString renders a scalar as a string. Numeric identifiers become
// their decimal text form, so a JSON id of 42 comes out as "42", never a
// float. Non-scalar values yield "".
func CoerceString(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case json.Number:
		return n.String()
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case bool:
		return strconv.FormatBool(n)
	default:
		return ""
	}
}

func toResources(items []any) []Resource {
	if len(items) == 0 {
		return nil
	}
	out := make([]Resource, 0, len(items))
	for _, item := range items {
		if r := AsResource(item); r != nil {
			out = append(out, r)
		}
	}
	return out
}
