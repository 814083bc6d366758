package props

import (
	"fmt"
	"sort"
	"strings"
)

// Schema is the set of accessors making up one configuration interface. A
// schema is built once and shared by every view bound to it.
type Schema struct {
	name      string
	accessors []Accessor
	index     map[string]int
	disabled  Feature
	mapper    KeyMapper
	defaults  map[string]string
}

// NewSchema validates accessors and derives their keys with LowerCamelKeys.
func NewSchema(name string, accessors ...Accessor) (*Schema, error) {
	return buildSchema(name, LowerCamelKeys, 0, accessors)
}

// MustSchema is like NewSchema but panics on invalid declarations.
func MustSchema(name string, accessors ...Accessor) *Schema {
	schema, err := NewSchema(name, accessors...)
	if err != nil {
		panic(err)
	}
	return schema
}

func buildSchema(name string, mapper KeyMapper, disabled Feature, accessors []Accessor) (*Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("props: schema name must be provided")
	}
	if mapper == nil {
		mapper = LowerCamelKeys
	}
	s := &Schema{
		name:      name,
		accessors: make([]Accessor, len(accessors)),
		index:     make(map[string]int, len(accessors)),
		disabled:  disabled,
		mapper:    mapper,
		defaults:  make(map[string]string),
	}
	for i, accessor := range accessors {
		if err := accessor.validate(); err != nil {
			return nil, fmt.Errorf("%w (schema %s)", err, name)
		}
		if _, exists := s.index[accessor.name]; exists {
			return nil, fmt.Errorf("props: schema %s declares accessor %q twice", name, accessor.name)
		}
		if !accessor.explicit {
			accessor.key = mapper(accessor.name)
		}
		accessor.disabled |= disabled
		s.accessors[i] = accessor
		s.index[accessor.name] = i
		if def, ok := accessor.Default(); ok && !accessor.IsNested() {
			if _, taken := s.defaults[accessor.key]; !taken {
				s.defaults[accessor.key] = def
			}
		}
	}
	return s, nil
}

// Defaults returns the declared default of every leaf accessor keyed by its
// effective key. When two accessors share a key the first declaration wins.
func (s *Schema) Defaults() Properties {
	if s == nil {
		return Properties{}
	}
	out := make(Properties, len(s.defaults))
	for key, value := range s.defaults {
		out[key] = value
	}
	return out
}

func (s *Schema) defaultFor(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	value, ok := s.defaults[key]
	return value, ok
}

// Name returns the schema name.
func (s *Schema) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Accessor returns the accessor declared under name.
func (s *Schema) Accessor(name string) (Accessor, bool) {
	if s == nil {
		return Accessor{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Accessor{}, false
	}
	return s.accessors[i], true
}

// Accessors returns the declarations in declaration order.
func (s *Schema) Accessors() []Accessor {
	if s == nil {
		return nil
	}
	return append([]Accessor(nil), s.accessors...)
}

// WithKeyMapper returns a copy of s whose non-explicit keys are derived with
// mapper.
func (s *Schema) WithKeyMapper(mapper KeyMapper) (*Schema, error) {
	return buildSchema(s.name, mapper, s.disabled, s.originals())
}

// WithDisabledFeatures returns a copy of s with features disabled on every
// accessor.
func (s *Schema) WithDisabledFeatures(features ...Feature) (*Schema, error) {
	disabled := s.disabled
	for _, f := range features {
		disabled |= f
	}
	return buildSchema(s.name, s.mapper, disabled, s.originals())
}

func (s *Schema) originals() []Accessor {
	out := make([]Accessor, len(s.accessors))
	for i, accessor := range s.accessors {
		if !accessor.explicit {
			accessor.key = ""
		}
		out[i] = accessor
	}
	return out
}

// FieldDescriptor describes one accessor for documentation and tooling.
type FieldDescriptor struct {
	Path     string `json:"path"`
	Key      string `json:"key,omitempty"`
	Type     string `json:"type"`
	Default  string `json:"default,omitempty"`
	Disabled string `json:"disabled,omitempty"`
}

// Describe flattens the schema, including nested schemas, into descriptors
// sorted by path. Nested key prefixes are not implied: nested views resolve
// their own keys against the derived store.
func (s *Schema) Describe() []FieldDescriptor {
	fields := s.describe("", map[*Schema]bool{})
	sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })
	return fields
}

func (s *Schema) describe(prefix string, seen map[*Schema]bool) []FieldDescriptor {
	if s == nil || seen[s] {
		return nil
	}
	seen[s] = true
	defer delete(seen, s)

	var fields []FieldDescriptor
	for _, accessor := range s.accessors {
		path := joinPath(prefix, accessor.name)
		if accessor.IsNested() {
			fields = append(fields, FieldDescriptor{Path: path, Type: "nested:" + accessor.Schema().Name()})
			fields = append(fields, accessor.Schema().describe(path, seen)...)
			continue
		}
		field := FieldDescriptor{
			Path: path,
			Key:  accessor.key,
			Type: typeString(accessor.typ),
		}
		if def, ok := accessor.Default(); ok {
			field.Default = def
		}
		if accessor.disabled != 0 {
			field.Disabled = accessor.disabled.String()
		}
		fields = append(fields, field)
	}
	return fields
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
