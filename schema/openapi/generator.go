// Package openapi renders a props schema as an OpenAPI document. Each schema,
// nested ones included, becomes a component; leaf accessors become properties
// annotated with their property key and declared default.
package openapi

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"time"

	props "github.com/goliatone/go-props"
)

// Extension keys attached to generated properties.
const (
	ExtensionKey       = "x-props-key"
	ExtensionDisabled  = "x-props-disabled"
	ExtensionEncrypted = "x-props-encrypted"
	ExtensionSeparator = "x-props-separator"
)

// Generate builds an OpenAPI document whose components describe schema.
func Generate(schema *props.Schema, opts ...GeneratorOption) (map[string]any, error) {
	if schema == nil {
		return nil, fmt.Errorf("openapi: schema cannot be nil")
	}
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	g := &generator{
		cfg:        cfg,
		names:      map[*props.Schema]string{},
		used:       map[string]bool{},
		components: map[string]any{},
	}
	root := g.component(schema)

	info := map[string]any{
		"title":   cfg.info.Title,
		"version": cfg.info.Version,
	}
	if cfg.info.Description != "" {
		info["description"] = cfg.info.Description
	}
	return map[string]any{
		"openapi": cfg.openAPIVersion,
		"info":    info,
		"paths":   map[string]any{},
		"components": map[string]any{
			"schemas": g.components,
		},
		"x-props-root": root,
	}, nil
}

type generator struct {
	cfg        generatorConfig
	names      map[*props.Schema]string
	used       map[string]bool
	components map[string]any
}

// component registers schema and returns its reference. The name is reserved
// before the accessors are walked so recursive schemas point back at it.
func (g *generator) component(schema *props.Schema) string {
	if name, ok := g.names[schema]; ok {
		return ref(name)
	}
	name := g.uniqueName(schema.Name())
	g.names[schema] = name

	properties := map[string]any{}
	for _, accessor := range schema.Accessors() {
		if accessor.IsNested() {
			properties[accessor.Name()] = map[string]any{"$ref": g.component(accessor.Schema())}
			continue
		}
		properties[accessor.Name()] = g.leaf(accessor)
	}
	g.components[name] = map[string]any{
		"type":       "object",
		"title":      schema.Name(),
		"properties": properties,
	}
	return ref(name)
}

func (g *generator) leaf(accessor props.Accessor) map[string]any {
	node := g.typeSchema(accessor.Type())
	node[ExtensionKey] = accessor.Key()
	if def, ok := accessor.Default(); ok {
		node["default"] = def
	}
	if accessor.Encrypted() {
		node[ExtensionEncrypted] = true
	}
	var disabled []string
	for _, feature := range []props.Feature{props.FeatureVariableExpansion, props.FeatureParameterFormatting} {
		if !accessor.Enabled(feature) {
			disabled = append(disabled, feature.String())
		}
	}
	if len(disabled) > 0 {
		node[ExtensionDisabled] = disabled
	}
	if node["type"] == "array" && accessor.Separator() != "" {
		node[ExtensionSeparator] = accessor.Separator()
	}
	return node
}

var (
	durationType = reflect.TypeFor[time.Duration]()
	timeType     = reflect.TypeFor[time.Time]()
	urlType      = reflect.TypeFor[url.URL]()
	charType     = reflect.TypeFor[props.Char]()
)

func (g *generator) typeSchema(typ reflect.Type) map[string]any {
	if typ == nil {
		return map[string]any{}
	}
	if g.cfg.converters != nil {
		if names := g.cfg.converters.EnumNames(typ); len(names) > 0 {
			return map[string]any{"type": "string", "enum": names}
		}
	}
	switch typ {
	case durationType:
		return map[string]any{"type": "string", "format": "duration"}
	case timeType:
		return map[string]any{"type": "string", "format": "date-time"}
	case urlType:
		return map[string]any{"type": "string", "format": "uri"}
	case charType:
		return map[string]any{"type": "string", "minLength": 1, "maxLength": 1}
	}

	switch typ.Kind() {
	case reflect.Pointer:
		node := g.typeSchema(typ.Elem())
		node["nullable"] = true
		return node
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 {
			return map[string]any{"type": "string", "format": "byte"}
		}
		return map[string]any{"type": "array", "items": g.typeSchema(typ.Elem())}
	case reflect.Array:
		return map[string]any{
			"type":     "array",
			"items":    g.typeSchema(typ.Elem()),
			"minItems": typ.Len(),
			"maxItems": typ.Len(),
		}
	default:
		return map[string]any{
			"type":   "string",
			"format": fmt.Sprintf("go:%s", typ.String()),
		}
	}
}

func (g *generator) uniqueName(name string) string {
	safe := sanitizeComponentName(name)
	if safe == "" {
		safe = "Schema"
	}
	if !g.used[safe] {
		g.used[safe] = true
		return safe
	}
	for suffix := 1; ; suffix++ {
		candidate := fmt.Sprintf("%s%d", safe, suffix)
		if !g.used[candidate] {
			g.used[candidate] = true
			return candidate
		}
	}
}

func ref(name string) string {
	return "#/components/schemas/" + name
}

var componentNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeComponentName(name string) string {
	name = componentNameRegexp.ReplaceAllString(name, "_")
	name = trimUnderscores(name)
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

func trimUnderscores(input string) string {
	start := 0
	for start < len(input) && input[start] == '_' {
		start++
	}
	end := len(input)
	for end > start && input[end-1] == '_' {
		end--
	}
	return input[start:end]
}
