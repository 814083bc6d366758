package props

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Struct tags read by SchemaOf:
//
//	key:"user.home"          explicit property key
//	default:"8080"           default value
//	separator:";"            sequence delimiter
//	disable:"expansion"      comma separated features to disable
//	encrypted:"true"         decrypt before expansion
//	props:"-"                skip the field
//	props:"nested"/"leaf"    force the accessor kind
const (
	tagKey       = "key"
	tagDefault   = "default"
	tagSeparator = "separator"
	tagDisable   = "disable"
	tagEncrypted = "encrypted"
	tagProps     = "props"
)

// SchemaOption configures SchemaOf.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	name   string
	mapper KeyMapper
}

// SchemaName overrides the name of the top-level schema.
func SchemaName(name string) SchemaOption {
	return func(cfg *schemaConfig) {
		cfg.name = name
	}
}

// SchemaKeyMapper sets the key mapper for the schema and all nested schemas.
func SchemaKeyMapper(mapper KeyMapper) SchemaOption {
	return func(cfg *schemaConfig) {
		cfg.mapper = mapper
	}
}

// SchemaOf builds a schema from the exported fields of struct T. Struct fields
// (other than types decoded from text) become nested accessors; every other
// field becomes a leaf accessor of the field's type.
func SchemaOf[T any](opts ...SchemaOption) (*Schema, error) {
	cfg := schemaConfig{mapper: LowerCamelKeys}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	typ := reflect.TypeFor[T]()
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("props: SchemaOf requires a struct type, got %s", typ)
	}
	b := &schemaBuilder{
		cfg:      cfg,
		built:    map[reflect.Type]*Schema{},
		building: map[reflect.Type]bool{},
	}
	return b.build(typ, cfg.name)
}

// MustSchemaOf is like SchemaOf but panics on invalid declarations.
func MustSchemaOf[T any](opts ...SchemaOption) *Schema {
	schema, err := SchemaOf[T](opts...)
	if err != nil {
		panic(err)
	}
	return schema
}

type schemaBuilder struct {
	cfg      schemaConfig
	built    map[reflect.Type]*Schema
	building map[reflect.Type]bool
}

func (b *schemaBuilder) build(typ reflect.Type, name string) (*Schema, error) {
	if schema, ok := b.built[typ]; ok {
		return schema, nil
	}
	if name == "" {
		name = typ.Name()
	}
	if name == "" {
		name = "config"
	}
	b.building[typ] = true
	defer delete(b.building, typ)

	accessors := make([]Accessor, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		mode := strings.TrimSpace(field.Tag.Get(tagProps))
		if mode == "-" {
			continue
		}
		opts, err := fieldOptions(field)
		if err != nil {
			return nil, fmt.Errorf("props: field %s.%s: %w", typ.Name(), field.Name, err)
		}

		nestedType, nested := nestedStruct(field.Type, mode)
		if !nested {
			accessors = append(accessors, LeafOf(field.Name, field.Type, opts...))
			continue
		}
		if b.building[nestedType] {
			target := nestedType
			accessors = append(accessors, NestedFunc(field.Name, func() *Schema {
				return b.built[target]
			}, opts...))
			continue
		}
		child, err := b.build(nestedType, "")
		if err != nil {
			return nil, err
		}
		accessors = append(accessors, Nested(field.Name, child, opts...))
	}

	schema, err := buildSchema(name, b.cfg.mapper, 0, accessors)
	if err != nil {
		return nil, err
	}
	b.built[typ] = schema
	return schema, nil
}

func fieldOptions(field reflect.StructField) ([]AccessorOption, error) {
	var opts []AccessorOption
	if key, ok := field.Tag.Lookup(tagKey); ok {
		opts = append(opts, WithKey(key))
	}
	if def, ok := field.Tag.Lookup(tagDefault); ok {
		opts = append(opts, WithDefault(def))
	}
	if sep, ok := field.Tag.Lookup(tagSeparator); ok && sep != "" {
		opts = append(opts, WithSeparator(sep))
	}
	if disable, ok := field.Tag.Lookup(tagDisable); ok {
		features, err := ParseFeatures(disable)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithDisabledFeatures(features))
	}
	if encrypted, ok := field.Tag.Lookup(tagEncrypted); ok {
		enabled, err := strconv.ParseBool(encrypted)
		if err != nil {
			return nil, fmt.Errorf("invalid encrypted tag %q", encrypted)
		}
		if enabled {
			opts = append(opts, WithEncryption())
		}
	}
	return opts, nil
}

var urlType = reflect.TypeFor[url.URL]()

// nestedStruct reports whether a field of type typ declares a nested view and
// returns the struct type describing it.
func nestedStruct(typ reflect.Type, mode string) (reflect.Type, bool) {
	if mode == "leaf" {
		return nil, false
	}
	elem := typ
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, false
	}
	if mode == "nested" {
		return elem, true
	}
	if elem == urlType {
		return nil, false
	}
	if _, ok := textUnmarshaler(elem); ok {
		return nil, false
	}
	return elem, true
}
