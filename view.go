package props

import (
	"fmt"
	"io"
)

// View is a configuration interface bound to a store. Adapters expose typed
// methods by forwarding to Get, Nested or Value:
//
//	type WebServer struct{ view *props.View }
//
//	func (w WebServer) Port() int { return props.MustGet[int](w.view, "port") }
type View struct {
	schema   *Schema
	store    *Store
	resolver *Resolver
	cfg      viewConfig
}

// New binds schema to store.
func New(schema *Schema, store *Store, opts ...Option) *View {
	cfg := applyOptions(opts)
	if store == nil {
		store = NewStore()
	}
	return &View{
		schema:   schema,
		store:    store,
		resolver: newResolver(cfg),
		cfg:      cfg,
	}
}

// Create binds schema to a store built from layers ordered strongest first.
func Create(schema *Schema, layers ...Layer) *View {
	return New(schema, NewStore(layers...))
}

// Schema returns the bound schema.
func (v *View) Schema() *Schema {
	return v.schema
}

// Store returns the bound store. Declared defaults are not part of it; see
// Effective.
func (v *View) Store() *Store {
	return v.store
}

// Effective returns the bound store with the schema defaults as the weakest
// layer.
func (v *View) Effective() *Store {
	layers := append(v.store.Layers(), NewLayer(
		NewScope(ScopeDefaults, WithScopeLabel("Declared Defaults"), WithScopeMetadata(map[string]any{"schema": v.schema.Name()})),
		v.schema.Defaults(),
		WithSnapshotID("defaults/"+v.schema.Name()),
	))
	return NewStore(layers...)
}

// Value invokes an accessor by name. Leaf accessors return their converted
// value or nil when unset, nested accessors return a *View, and delegated
// signatures return whatever the store produces.
func (v *View) Value(name string, args ...any) (any, error) {
	if result, ok, err := v.resolver.Delegate(v.schema, v.Effective, name, args); ok {
		return result, err
	}
	res, err := v.resolve(name, args)
	if err != nil {
		return nil, err
	}
	if res.Nested() {
		return v.bind(res), nil
	}
	if !res.Set {
		return nil, nil
	}
	return res.Value, nil
}

// Nested invokes a nested accessor. args become layers stacked above this
// view's store.
func (v *View) Nested(name string, args ...any) (*View, error) {
	res, err := v.resolve(name, args)
	if err != nil {
		return nil, err
	}
	if !res.Nested() {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotNested, v.schema.Name(), name)
	}
	return v.bind(res), nil
}

// MustNested is like Nested but panics on error.
func (v *View) MustNested(name string, args ...any) *View {
	nested, err := v.Nested(name, args...)
	if err != nil {
		panic(err)
	}
	return nested
}

// LayerWith returns a view over the same schema whose store consults layers
// before this view's layers.
func (v *View) LayerWith(layers ...Layer) *View {
	return &View{
		schema:   v.schema,
		store:    v.store.Derive(layers...),
		resolver: v.resolver,
		cfg:      v.cfg,
	}
}

// List writes the effective properties to w.
func (v *View) List(w io.Writer) error {
	_, err := v.Value("list", w)
	return err
}

// Trace reports the provenance of key, including the declared defaults layer.
func (v *View) Trace(key string) Trace {
	return v.Effective().Trace(key)
}

// Get invokes the leaf accessor name and returns its value as T. ok is false
// when the accessor is unset.
func Get[T any](v *View, name string, args ...any) (T, bool, error) {
	var zero T
	res, err := v.resolve(name, args)
	if err != nil {
		return zero, false, err
	}
	if res.Nested() {
		if view, ok := any(v.bind(res)).(T); ok {
			return view, true, nil
		}
		return zero, false, fmt.Errorf("%w: %s.%s is nested, requested %T", ErrTypeMismatch, v.schema.Name(), name, zero)
	}
	if !res.Set {
		return zero, false, nil
	}
	typed, ok := res.Value.(T)
	if !ok {
		return zero, false, fmt.Errorf("%w: %s.%s declares %T, requested %T", ErrTypeMismatch, v.schema.Name(), name, res.Value, zero)
	}
	return typed, true, nil
}

// MustGet is like Get but panics on error and returns the zero value when the
// accessor is unset.
func MustGet[T any](v *View, name string, args ...any) T {
	value, _, err := Get[T](v, name, args...)
	if err != nil {
		panic(err)
	}
	return value
}

func (v *View) resolve(name string, args []any) (Resolution, error) {
	accessor, ok := v.schema.Accessor(name)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s.%s", ErrUnknownAccessor, v.schema.Name(), name)
	}
	return v.resolver.Resolve(ResolutionContext{
		Schema:   v.schema,
		Accessor: accessor,
		Store:    v.store,
		Args:     args,
	})
}

func (v *View) bind(res Resolution) *View {
	return &View{
		schema:   res.Schema,
		store:    res.Store,
		resolver: v.resolver,
		cfg:      v.cfg,
	}
}
