package props

import (
	"reflect"
	"slices"

	"github.com/goliatone/go-props/internal/hydrate"
)

// Decode hydrates a struct T (typically the type passed to SchemaOf) from the
// view. Each exported field is resolved through the accessor of the same name;
// nested structs are filled from nested views bound with no arguments, except
// for schemas already being decoded higher up, which are left zero. The result
// is validated when T implements Validate() error.
func Decode[T any](v *View) (T, error) {
	decoder := hydrate.NewDecoder[T](hydrate.WithPostHook[T](func(_ hydrate.Context, value *T) error {
		return validateValue(*value)
	}))
	return decoder.Decode(hydrate.Context{Schema: v.schema.Name()}, viewSource{view: v})
}

// Load builds a schema from T, binds it to layers and decodes the result.
func Load[T any](layers []Layer, opts ...Option) (T, error) {
	var zero T
	schema, err := SchemaOf[T]()
	if err != nil {
		return zero, err
	}
	return Decode[T](New(schema, NewStore(layers...), opts...))
}

type viewSource struct {
	view    *View
	parents []*Schema
}

func (s viewSource) Resolve(name string) (any, hydrate.Source, bool, error) {
	if _, ok := s.view.schema.Accessor(name); !ok {
		return nil, nil, false, nil
	}
	res, err := s.view.resolve(name, nil)
	if err != nil {
		return nil, nil, false, err
	}
	if res.Nested() {
		parents := append(append([]*Schema(nil), s.parents...), s.view.schema)
		if slices.Contains(parents, res.Schema) {
			return nil, nil, false, nil
		}
		return nil, viewSource{view: s.view.bind(res), parents: parents}, true, nil
	}
	return res.Value, nil, res.Set, nil
}

func validateValue[T any](value T) error {
	if v, ok := any(value).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	if rv := reflect.ValueOf(&value).Elem(); rv.Kind() != reflect.Pointer && rv.CanAddr() {
		if v, ok := rv.Addr().Interface().(interface{ Validate() error }); ok {
			return v.Validate()
		}
	}
	return nil
}
