package graph

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
)

// State is the shared record passed to every node. Nodes must treat it as
// read-only and return a partial update instead of mutating it.
type State map[string]any

// Clone returns a shallow copy of the state.
func (s State) Clone() State {
	out := make(State, len(s))
	maps.Copy(out, s)
	return out
}

// Get returns the value of key converted to T.
func Get[T any](s State, key string) (T, bool) {
	v, ok := s[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// GetOr returns the value of key or def when it is missing or has another type.
func GetOr[T any](s State, key string, def T) T {
	if v, ok := Get[T](s, key); ok {
		return v
	}
	return def
}

// Reducer defines how a state value should be updated.
// It takes the current value and the new value, and returns the merged value.
type Reducer func(current, new any) (any, error)

// Field declares one named state field, its value type and its merge rule.
type Field struct {
	// Name is the state key
	Name string
	// Type is the declared value type; nil accepts any value
	Type reflect.Type
	// Reducer merges updates; nil means overwrite
	Reducer Reducer
	// Default is the value a run starts with when the input omits the field
	Default any
}

// FieldOption configures a Field.
type FieldOption func(*Field)

// WithReducer sets the merge rule of a field.
func WithReducer(r Reducer) FieldOption {
	return func(f *Field) {
		f.Reducer = r
	}
}

// WithDefault sets the initial value of a field.
func WithDefault(v any) FieldOption {
	return func(f *Field) {
		f.Default = v
	}
}

// FieldOf declares a field holding values of type T.
func FieldOf[T any](name string, opts ...FieldOption) Field {
	f := Field{Name: name, Type: reflect.TypeFor[T]()}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Schema is the fixed set of fields a graph's state may hold. A nil *Schema
// accepts any field and overwrites on update.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema creates a schema from field descriptors. Problems such as
// duplicate names are reported when the graph is compiled.
func NewSchema(fields ...Field) *Schema {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if _, dup := s.index[f.Name]; !dup {
			s.index[f.Name] = len(s.fields)
		}
		s.fields = append(s.fields, f)
	}
	return s
}

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	return append([]Field(nil), s.fields...)
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

func (s *Schema) validate() []error {
	if s == nil {
		return nil
	}
	var errs []error
	seen := make(map[string]bool, len(s.fields))
	for _, f := range s.fields {
		if f.Name == "" {
			errs = append(errs, errors.New("schema field with empty name"))
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("duplicate schema field %q", f.Name))
			continue
		}
		seen[f.Name] = true
		if f.Default != nil {
			if err := checkType(f, f.Default); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

// initialize builds the first state of a run: defaults overlaid with input.
func (s *Schema) initialize(input State) (State, error) {
	state := make(State, len(input))
	if s == nil {
		maps.Copy(state, input)
		return state, nil
	}
	for _, f := range s.fields {
		if f.Default != nil {
			state[f.Name] = f.Default
		}
	}
	for k, v := range input {
		f, ok := s.Field(k)
		if !ok {
			return nil, &StateError{Field: k, Reason: "field is not declared in the schema"}
		}
		if err := checkType(f, v); err != nil {
			return nil, err
		}
		state[k] = v
	}
	return state, nil
}

// apply merges one partial update into state and returns the new state.
// The input state is left untouched.
func (s *Schema) apply(state State, update State) (State, error) {
	result := state.Clone()
	if s == nil {
		maps.Copy(result, update)
		return result, nil
	}

	for _, k := range sortedKeys(update) {
		v := update[k]
		f, ok := s.Field(k)
		if !ok {
			return nil, &StateError{Field: k, Reason: "field is not declared in the schema"}
		}
		if f.Reducer == nil {
			if err := checkType(f, v); err != nil {
				return nil, err
			}
			result[k] = v
			continue
		}
		merged, err := f.Reducer(result[k], v)
		if err != nil {
			return nil, &StateError{Field: k, Reason: fmt.Sprintf("reducer failed: %v", err)}
		}
		if err := checkType(f, merged); err != nil {
			return nil, err
		}
		result[k] = merged
	}
	return result, nil
}

func checkType(f Field, v any) error {
	if f.Type == nil {
		return nil
	}
	if v == nil {
		switch f.Type.Kind() {
		case reflect.Interface, reflect.Slice, reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan:
			return nil
		}
		return &StateError{Field: f.Name, Reason: fmt.Sprintf("nil is not a valid %s", f.Type)}
	}
	if !reflect.TypeOf(v).AssignableTo(f.Type) {
		return &StateError{Field: f.Name, Reason: fmt.Sprintf("value of type %T is not assignable to %s", v, f.Type)}
	}
	return nil
}

// Common Reducers

// OverwriteReducer replaces the old value with the new one.
func OverwriteReducer(current, new any) (any, error) {
	return new, nil
}

// AppendReducer appends the new value to the current slice.
// It supports appending a slice to a slice, or a single element to a slice.
func AppendReducer(current, new any) (any, error) {
	newVal := reflect.ValueOf(new)
	if current == nil {
		if newVal.Kind() == reflect.Slice {
			return new, nil
		}
		slice := reflect.MakeSlice(reflect.SliceOf(reflect.TypeOf(new)), 0, 1)
		return reflect.Append(slice, newVal).Interface(), nil
	}

	currVal := reflect.ValueOf(current)
	if currVal.Kind() != reflect.Slice {
		return nil, fmt.Errorf("current value is not a slice")
	}

	// Copy first so the previous state's backing array is never shared.
	out := reflect.MakeSlice(currVal.Type(), currVal.Len(), currVal.Len()+1)
	reflect.Copy(out, currVal)

	if newVal.Kind() == reflect.Slice {
		if currVal.Type().Elem() != newVal.Type().Elem() {
			result := make([]any, 0, currVal.Len()+newVal.Len())
			for i := 0; i < currVal.Len(); i++ {
				result = append(result, currVal.Index(i).Interface())
			}
			for i := 0; i < newVal.Len(); i++ {
				result = append(result, newVal.Index(i).Interface())
			}
			return result, nil
		}
		return reflect.AppendSlice(out, newVal).Interface(), nil
	}

	if !newVal.Type().AssignableTo(currVal.Type().Elem()) {
		return nil, fmt.Errorf("cannot append %T to %s", new, currVal.Type())
	}
	return reflect.Append(out, newVal).Interface(), nil
}

// ConcatReducer joins []T values. When both sides are non-empty the separator
// elements are placed between them, so ConcatReducer("#") turns ["x"] and
// ["y"] into ["x", "#", "y"]. An update may be a []T or a single T.
func ConcatReducer[T any](separator ...T) Reducer {
	return func(current, update any) (any, error) {
		var cur []T
		if current != nil {
			c, ok := current.([]T)
			if !ok {
				return nil, fmt.Errorf("current value %T is not %T", current, cur)
			}
			cur = c
		}

		var upd []T
		switch u := update.(type) {
		case nil:
		case []T:
			upd = u
		case T:
			upd = []T{u}
		default:
			return nil, fmt.Errorf("update %T is neither %T nor its element type", update, upd)
		}

		out := make([]T, 0, len(cur)+len(separator)+len(upd))
		out = append(out, cur...)
		if len(cur) > 0 && len(upd) > 0 {
			out = append(out, separator...)
		}
		return append(out, upd...), nil
	}
}
