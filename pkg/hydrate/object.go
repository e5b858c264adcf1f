package hydrate

import (
	"encoding/json"
	"sort"
)

// Object is the schema-less fallback for mappings nobody declared a type for.
// Nested mappings are Objects as well; sequences are []any.
type Object struct {
	Fields map[string]any
}

// Get returns the raw attribute.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.Fields[key]
	return v, ok
}

// String returns the attribute if it is a string.
func (o *Object) String(key string) string {
	v, _ := o.Get(key)
	s, _ := v.(string)
	return s
}

// Int returns the attribute if it is an integral number.
func (o *Object) Int(key string) int64 {
	v, _ := o.Get(key)
	n, _ := toInt64(v)
	return n
}

// Bool returns the attribute if it is a boolean.
func (o *Object) Bool(key string) bool {
	v, _ := o.Get(key)
	b, _ := v.(bool)
	return b
}

// Object returns the nested object stored under key, or nil.
func (o *Object) Object(key string) *Object {
	v, _ := o.Get(key)
	n, _ := v.(*Object)
	return n
}

// Keys returns the attribute names in sorted order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, 0, len(o.Fields))
	for k := range o.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the object back to its wire form.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Fields)
}
