package hydrate

import (
	"reflect"
	"strings"
	"sync"
)

// Resolver picks the concrete struct type for a raw mapping found under a
// (parent, field) position. Returning nil means "no opinion": the declared
// field type, or the *Object fallback, is used instead.
type Resolver func(raw map[string]any) reflect.Type

// Field describes one wire field of a struct schema.
type Field struct {
	Name      string
	Index     []int
	Type      reflect.Type
	OmitEmpty bool
	depth     int
}

// Schema is the wire view of a struct type: wire name -> Go field.
// Embedded component structs are flattened into their parent.
type Schema struct {
	Type   reflect.Type
	fields map[string]*Field
	order  []*Field
}

// Field returns the schema entry for the wire name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns schema entries in declaration order.
func (s *Schema) Fields() []*Field {
	return s.order
}

type overrideKey struct {
	parent reflect.Type
	field  string
}

// Registry maps (parent type, field name) pairs to nested types.
//
// The declared Go type of a field is the default resolution, so two parents
// sharing a field name never collide. Register installs explicit overrides for
// positions whose type depends on the payload (tagged variants).
type Registry struct {
	mu        sync.RWMutex
	schemas   map[reflect.Type]*Schema
	overrides map[overrideKey]Resolver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas:   make(map[reflect.Type]*Schema),
		overrides: make(map[overrideKey]Resolver),
	}
}

// Default is the process-wide registry used by the package-level helpers.
var Default = NewRegistry()

// Register installs a resolver for field of parent. parent may be a struct
// value, a pointer to one, or a reflect.Type.
func (r *Registry) Register(parent any, field string, resolve Resolver) {
	key := overrideKey{parent: structType(parent), field: field}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[key] = resolve
}

// Register installs a resolver on the Default registry.
func Register(parent any, field string, resolve Resolver) {
	Default.Register(parent, field, resolve)
}

// Variant returns a resolver that switches on the string discriminator key.
// Each prototype may be a struct value or a pointer to one.
func Variant(key string, variants map[string]any) Resolver {
	types := make(map[string]reflect.Type, len(variants))
	for tag, proto := range variants {
		types[tag] = structType(proto)
	}
	return func(raw map[string]any) reflect.Type {
		tag, _ := raw[key].(string)
		return types[tag]
	}
}

// Resolve returns the struct type to hydrate a raw mapping found at
// (parent, field) into, or nil when the generic *Object should be used.
func (r *Registry) Resolve(parent reflect.Type, field string, raw map[string]any) reflect.Type {
	r.mu.RLock()
	resolve := r.overrides[overrideKey{parent: parent, field: field}]
	r.mu.RUnlock()
	if resolve != nil {
		if t := resolve(raw); t != nil {
			return t
		}
	}

	if parent == nil || parent.Kind() != reflect.Struct {
		return nil
	}
	f, ok := r.Schema(parent).Field(field)
	if !ok {
		return nil
	}
	return elemStruct(f.Type)
}

// Schema returns the cached schema for a struct type, building it on first use.
func (r *Registry) Schema(t reflect.Type) *Schema {
	r.mu.RLock()
	s, ok := r.schemas[t]
	r.mu.RUnlock()
	if ok {
		return s
	}

	s = buildSchema(t)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.schemas[t]; ok {
		return existing
	}
	r.schemas[t] = s
	return s
}

func buildSchema(t reflect.Type) *Schema {
	s := &Schema{Type: t, fields: make(map[string]*Field)}
	collectFields(s, t, nil, 0)
	return s
}

func collectFields(s *Schema, t reflect.Type, prefix []int, depth int) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		index := make([]int, len(prefix)+1)
		copy(index, prefix)
		index[len(prefix)] = i

		if sf.Anonymous && name == "" && sf.Type.Kind() == reflect.Struct {
			collectFields(s, sf.Type, index, depth+1)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}

		// Shallower fields win, like encoding/json.
		if existing, ok := s.fields[name]; ok && existing.depth <= depth {
			continue
		}
		f := &Field{
			Name:      name,
			Index:     index,
			Type:      sf.Type,
			OmitEmpty: strings.Contains(opts, "omitempty"),
			depth:     depth,
		}
		if _, ok := s.fields[name]; !ok {
			s.order = append(s.order, f)
		} else {
			for j, o := range s.order {
				if o.Name == name {
					s.order[j] = f
				}
			}
		}
		s.fields[name] = f
	}
}

// elemStruct strips pointers, slices, arrays and maps down to a struct type.
func elemStruct(t reflect.Type) reflect.Type {
	for {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
			t = t.Elem()
		case reflect.Struct:
			return t
		default:
			return nil
		}
	}
}

func structType(v any) reflect.Type {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
