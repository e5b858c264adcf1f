// Package hydrate turns loosely typed JSON values into graphs of typed structs.
//
// A raw value is what Decode produces: map[string]any, []any, string,
// json.Number, bool or nil. Hydrate walks a raw mapping and assigns every key
// onto the target struct by its json tag. Nested mappings are resolved through
// a Registry keyed by (parent type, field name); keys the struct does not
// declare, and values that do not fit the declared field, are kept in the
// struct's Passthrough bag so nothing the server sent is lost.
package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
)

// ErrNotStructPointer is returned when the hydration target is not a non-nil
// pointer to a struct.
var ErrNotStructPointer = errors.New("hydrate: target must be a non-nil pointer to a struct")

// FieldParser is implemented by entities that coerce raw scalars for some of
// their fields, e.g. string tags into enumerations. Values for other fields
// must be returned unchanged.
type FieldParser interface {
	ParseField(name string, value any) any
}

// Passthrough holds wire keys that the owning struct does not declare.
// Embed it in every hydrated type.
type Passthrough struct {
	Extra map[string]any `json:"-"`
}

// SetExtra attaches an undeclared attribute.
func (p *Passthrough) SetExtra(name string, value any) {
	if p.Extra == nil {
		p.Extra = make(map[string]any)
	}
	p.Extra[name] = value
}

// ExtraField returns an undeclared attribute.
func (p Passthrough) ExtraField(name string) (any, bool) {
	v, ok := p.Extra[name]
	return v, ok
}

type extraWriter interface {
	SetExtra(name string, value any)
}

type extraReader interface {
	ExtraField(name string) (any, bool)
}

// Decode parses JSON text into a raw value. Numbers are kept as json.Number.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("hydrate: decode: %w", err)
	}
	return v, nil
}

// Hydrate fills target from raw using the Default registry.
func Hydrate(target any, raw map[string]any) error {
	return Default.Hydrate(target, raw)
}

// Into hydrates a raw mapping into a new T.
func Into[T any](raw any) (*T, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("hydrate: expected object, got %T", raw)
	}
	out := new(T)
	if err := Default.Hydrate(out, m); err != nil {
		return nil, err
	}
	return out, nil
}

// SliceOf hydrates a raw sequence of mappings into a []T.
func SliceOf[T any](raw any) ([]T, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("hydrate: expected array, got %T", raw)
	}
	out := make([]T, 0, len(list))
	for i, item := range list {
		v, err := Into[T](item)
		if err != nil {
			return nil, fmt.Errorf("hydrate: element %d: %w", i, err)
		}
		out = append(out, *v)
	}
	return out, nil
}

// Hydrate assigns every key of raw onto target, a pointer to a struct.
// Values already set on target act as defaults and are overwritten by keys
// present in raw.
func (r *Registry) Hydrate(target any, raw map[string]any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}
	r.fill(v.Elem(), raw)
	return nil
}

func (r *Registry) fill(obj reflect.Value, raw map[string]any) {
	t := obj.Type()
	schema := r.Schema(t)

	self := obj.Addr().Interface()
	parser, _ := self.(FieldParser)
	extra, _ := self.(extraWriter)

	for name, value := range raw {
		f, ok := schema.Field(name)
		if ok {
			if rv, ok := r.convert(t, name, value, f.Type, parser); ok {
				obj.FieldByIndex(f.Index).Set(rv)
				continue
			}
		}
		if extra != nil {
			extra.SetExtra(name, r.loose(t, name, value, parser))
		}
	}
}

// convert builds a value of type target from a raw value found at
// (parent, name). It reports false when the raw shape cannot be stored in
// target.
func (r *Registry) convert(parent reflect.Type, name string, value any, target reflect.Type, parser FieldParser) (reflect.Value, bool) {
	switch v := value.(type) {
	case []any:
		return r.convertList(parent, name, v, target, parser)
	case map[string]any:
		return r.convertMap(parent, name, v, target)
	default:
		if parser != nil {
			value = parser.ParseField(name, value)
		}
		return convertScalar(value, target)
	}
}

func (r *Registry) convertList(parent reflect.Type, name string, list []any, target reflect.Type, parser FieldParser) (reflect.Value, bool) {
	switch target.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(target, 0, len(list))
		for _, item := range list {
			ev, ok := r.convert(parent, name, item, target.Elem(), parser)
			if !ok {
				return reflect.Value{}, false
			}
			out = reflect.Append(out, ev)
		}
		return out, true
	case reflect.Pointer:
		inner, ok := r.convertList(parent, name, list, target.Elem(), parser)
		if !ok {
			return reflect.Value{}, false
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(inner)
		return p, true
	case reflect.Interface:
		return assignable(reflect.ValueOf(r.loose(parent, name, list, parser)), target)
	}
	return reflect.Value{}, false
}

func (r *Registry) convertMap(parent reflect.Type, name string, m map[string]any, target reflect.Type) (reflect.Value, bool) {
	if target.Kind() == reflect.Map && target.Key().Kind() == reflect.String {
		out := reflect.MakeMapWithSize(target, len(m))
		for k, item := range m {
			ev, ok := r.convert(parent, name, item, target.Elem(), nil)
			if !ok {
				return reflect.Value{}, false
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(target.Key()), ev)
		}
		return out, true
	}

	st := r.Resolve(parent, name, m)
	if st == nil {
		return assignable(reflect.ValueOf(r.object(m)), target)
	}

	p := reflect.New(st)
	r.fill(p.Elem(), m)
	switch {
	case p.Type().AssignableTo(target):
		return p, true
	case st.AssignableTo(target):
		return p.Elem(), true
	}
	return reflect.Value{}, false
}

// loose hydrates a value that has no declared field to land in.
func (r *Registry) loose(parent reflect.Type, name string, value any, parser FieldParser) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.loose(parent, name, item, parser)
		}
		return out
	case map[string]any:
		r.mu.RLock()
		resolve := r.overrides[overrideKey{parent: parent, field: name}]
		r.mu.RUnlock()
		if resolve != nil {
			if st := resolve(v); st != nil {
				p := reflect.New(st)
				r.fill(p.Elem(), v)
				return p.Interface()
			}
		}
		return r.object(v)
	default:
		if parser != nil {
			return parser.ParseField(name, value)
		}
		return value
	}
}

func (r *Registry) object(m map[string]any) *Object {
	o := &Object{Fields: make(map[string]any, len(m))}
	for k, v := range m {
		o.Fields[k] = r.loose(nil, k, v, nil)
	}
	return o
}

func assignable(v reflect.Value, target reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() || !v.Type().AssignableTo(target) {
		return reflect.Value{}, false
	}
	out := reflect.New(target).Elem()
	out.Set(v)
	return out, true
}

func convertScalar(value any, target reflect.Type) (reflect.Value, bool) {
	if value == nil {
		return reflect.Zero(target), true
	}
	if out, ok := assignable(reflect.ValueOf(value), target); ok {
		return out, true
	}

	switch target.Kind() {
	case reflect.Pointer:
		inner, ok := convertScalar(value, target.Elem())
		if !ok {
			return reflect.Value{}, false
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(inner)
		return p, true
	case reflect.String:
		if _, isNum := value.(json.Number); isNum {
			return reflect.Value{}, false
		}
		if s, ok := value.(string); ok {
			return reflect.ValueOf(s).Convert(target), true
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			return reflect.ValueOf(b).Convert(target), true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt64(value)
		if !ok {
			return reflect.Value{}, false
		}
		out := reflect.New(target).Elem()
		if out.OverflowInt(n) {
			return reflect.Value{}, false
		}
		out.SetInt(n)
		return out, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := toInt64(value)
		if !ok || n < 0 {
			return reflect.Value{}, false
		}
		out := reflect.New(target).Elem()
		if out.OverflowUint(uint64(n)) {
			return reflect.Value{}, false
		}
		out.SetUint(uint64(n))
		return out, true
	case reflect.Float32, reflect.Float64:
		f, ok := toFloat64(value)
		if !ok {
			return reflect.Value{}, false
		}
		out := reflect.New(target).Elem()
		out.SetFloat(f)
		return out, true
	}
	return reflect.Value{}, false
}

func toInt64(value any) (int64, bool) {
	switch n := value.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func toFloat64(value any) (float64, bool) {
	switch n := value.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Lookup reads the wire key from a hydrated value: a declared field of a
// struct, an attribute kept in its Passthrough bag, a key of an *Object or of
// a raw mapping.
func Lookup(obj any, key string) (any, bool) {
	switch o := obj.(type) {
	case *Object:
		return o.Get(key)
	case map[string]any:
		v, ok := o[key]
		return v, ok
	}

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	// A value that did not fit its declared field lives in the bag while the
	// field keeps its default, so the bag answers first.
	if er, ok := v.Interface().(extraReader); ok {
		if x, ok := er.ExtraField(key); ok {
			return x, true
		}
	}
	if f, ok := Default.Schema(v.Type()).Field(key); ok {
		return v.FieldByIndex(f.Index).Interface(), true
	}
	return nil, false
}

// Fields flattens a struct into its top-level wire fields, the shape request
// parameters are sent in. Nil pointers, slices, maps and interfaces are
// dropped; so are empty values of fields tagged omitempty.
func Fields(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	out := make(map[string]any)
	for _, f := range Default.Schema(rv.Type()).Fields() {
		fv := rv.FieldByIndex(f.Index)
		if isNil(fv) || (f.OmitEmpty && fv.IsZero()) {
			continue
		}
		if f.OmitEmpty && (fv.Kind() == reflect.Slice || fv.Kind() == reflect.Map) && fv.Len() == 0 {
			continue
		}
		out[f.Name] = fv.Interface()
	}
	return out
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return v.IsNil()
	}
	return false
}
