package props

import (
	"fmt"
	"reflect"
)

// Accessor declares one operation of a configuration interface: either a typed
// leaf value or a nested configuration view. Accessors are immutable and are
// shared by every view bound to their schema.
type Accessor struct {
	name       string
	key        string
	explicit   bool
	def        *string
	typ        reflect.Type
	nested     *Schema
	disabled   Feature
	separator  string
	encrypted  bool
	nestedOnce func() *Schema
}

// AccessorOption configures an Accessor declaration.
type AccessorOption func(*Accessor)

// WithKey overrides the key derived from the accessor name.
func WithKey(key string) AccessorOption {
	return func(a *Accessor) {
		a.key = key
		a.explicit = true
	}
}

// WithDefault supplies the value used when no layer defines the key.
func WithDefault(value string) AccessorOption {
	return func(a *Accessor) {
		v := value
		a.def = &v
	}
}

// WithSeparator sets the delimiter used to split sequence values.
func WithSeparator(sep string) AccessorOption {
	return func(a *Accessor) {
		a.separator = sep
	}
}

// WithDisabledFeatures turns off resolution features for the accessor.
func WithDisabledFeatures(features ...Feature) AccessorOption {
	return func(a *Accessor) {
		for _, f := range features {
			a.disabled |= f
		}
	}
}

// WithEncryption marks the stored value as encrypted; it is passed through the
// configured Decryptor before expansion.
func WithEncryption() AccessorOption {
	return func(a *Accessor) {
		a.encrypted = true
	}
}

// Leaf declares an accessor resolving to T.
func Leaf[T any](name string, opts ...AccessorOption) Accessor {
	return LeafOf(name, reflect.TypeFor[T](), opts...)
}

// LeafOf declares an accessor resolving to typ.
func LeafOf(name string, typ reflect.Type, opts ...AccessorOption) Accessor {
	a := Accessor{name: name, typ: typ}
	for _, opt := range opts {
		if opt != nil {
			opt(&a)
		}
	}
	return a
}

// Nested declares an accessor returning a view over schema. Call-time
// arguments of a nested accessor are layers stacked above the parent store.
func Nested(name string, schema *Schema, opts ...AccessorOption) Accessor {
	a := LeafOf(name, nil, opts...)
	a.nested = schema
	return a
}

// NestedFunc declares a nested accessor whose schema is produced lazily, which
// allows self-referencing configuration interfaces.
func NestedFunc(name string, schema func() *Schema, opts ...AccessorOption) Accessor {
	a := LeafOf(name, nil, opts...)
	a.nestedOnce = schema
	return a
}

// Name returns the declared accessor name.
func (a Accessor) Name() string { return a.name }

// Key returns the effective property key.
func (a Accessor) Key() string { return a.key }

// ExplicitKey returns the key override, if one was declared.
func (a Accessor) ExplicitKey() (string, bool) {
	if !a.explicit {
		return "", false
	}
	return a.key, true
}

// Default returns the declared default value.
func (a Accessor) Default() (string, bool) {
	if a.def == nil {
		return "", false
	}
	return *a.def, true
}

// Type returns the declared leaf type (nil for nested accessors).
func (a Accessor) Type() reflect.Type { return a.typ }

// IsNested reports whether the accessor returns a configuration view.
func (a Accessor) IsNested() bool {
	return a.nested != nil || a.nestedOnce != nil
}

// Schema returns the nested schema, or nil for leaf accessors.
func (a Accessor) Schema() *Schema {
	if a.nested != nil {
		return a.nested
	}
	if a.nestedOnce != nil {
		return a.nestedOnce()
	}
	return nil
}

// Enabled reports whether feature is active for the accessor.
func (a Accessor) Enabled(feature Feature) bool {
	return a.disabled&feature == 0
}

// Separator returns the sequence delimiter.
func (a Accessor) Separator() string {
	if a.separator == "" {
		return DefaultSeparator
	}
	return a.separator
}

// Encrypted reports whether the stored value must be decrypted.
func (a Accessor) Encrypted() bool { return a.encrypted }

func (a Accessor) String() string {
	if a.IsNested() {
		return fmt.Sprintf("%s() nested", a.name)
	}
	return fmt.Sprintf("%s() %s key=%q", a.name, typeString(a.typ), a.key)
}

func (a Accessor) validate() error {
	if a.name == "" {
		return fmt.Errorf("props: accessor name must be provided")
	}
	if a.explicit && a.key == "" {
		return fmt.Errorf("props: accessor %q declares an empty key", a.name)
	}
	if !a.IsNested() && a.typ == nil {
		return fmt.Errorf("props: accessor %q has no declared type", a.name)
	}
	return nil
}
