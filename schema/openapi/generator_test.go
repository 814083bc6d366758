package openapi

import (
	"encoding/json"
	"net/url"
	"reflect"
	"slices"
	"testing"
	"time"

	props "github.com/goliatone/go-props"
)

type level string

type serverConfig struct {
	Port    int           `default:"8080"`
	URL     url.URL       `key:"url" default:"http://localhost:${port}"`
	Timeout time.Duration `default:"5s"`
}

type appConfig struct {
	Title   string   `default:"My %s App" disable:"formatting"`
	Tags    []string `separator:";"`
	Secret  string   `encrypted:"true"`
	Level   level
	Server  serverConfig
	Backup  *serverConfig
	Primary *appConfig
}

func component(t *testing.T, doc map[string]any, name string) map[string]any {
	t.Helper()
	schemas := doc["components"].(map[string]any)["schemas"].(map[string]any)
	entry, ok := schemas[name].(map[string]any)
	if !ok {
		t.Fatalf("component %q missing; have %v", name, reflect.ValueOf(schemas).MapKeys())
	}
	return entry
}

func property(t *testing.T, schema map[string]any, name string) map[string]any {
	t.Helper()
	prop, ok := schema["properties"].(map[string]any)[name].(map[string]any)
	if !ok {
		t.Fatalf("property %q missing", name)
	}
	return prop
}

func TestGenerateDescribesLeaves(t *testing.T) {
	schema := props.MustSchemaOf[appConfig]()
	doc, err := Generate(schema,
		WithInfo("App", "2.0.0", WithInfoDescription("app settings")),
		WithConverters(props.NewConverterRegistry(props.WithEnum(map[string]level{"debug": "debug", "info": "info"}))),
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Fatalf("expected default version, got %v", doc["openapi"])
	}
	info := doc["info"].(map[string]any)
	if info["title"] != "App" || info["version"] != "2.0.0" || info["description"] != "app settings" {
		t.Fatalf("unexpected info %#v", info)
	}
	if doc["x-props-root"] != "#/components/schemas/appConfig" {
		t.Fatalf("unexpected root ref %v", doc["x-props-root"])
	}

	app := component(t, doc, "appConfig")
	title := property(t, app, "Title")
	if title["type"] != "string" || title["default"] != "My %s App" || title[ExtensionKey] != "title" {
		t.Fatalf("unexpected title property %#v", title)
	}
	if disabled := title[ExtensionDisabled].([]string); !slices.Equal(disabled, []string{"formatting"}) {
		t.Fatalf("expected formatting disabled, got %v", disabled)
	}

	tags := property(t, app, "Tags")
	if tags["type"] != "array" || tags[ExtensionSeparator] != ";" {
		t.Fatalf("unexpected tags property %#v", tags)
	}
	if items := tags["items"].(map[string]any); items["type"] != "string" {
		t.Fatalf("unexpected tag items %#v", items)
	}

	if secret := property(t, app, "Secret"); secret[ExtensionEncrypted] != true {
		t.Fatalf("expected encrypted marker, got %#v", secret)
	}
	if lvl := property(t, app, "Level"); !slices.Equal(lvl["enum"].([]string), []string{"debug", "info"}) {
		t.Fatalf("expected enum names, got %#v", lvl)
	}
}

func TestGenerateReferencesNestedSchemas(t *testing.T) {
	doc, err := Generate(props.MustSchemaOf[appConfig]())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	app := component(t, doc, "appConfig")
	if ref := property(t, app, "Server")["$ref"]; ref != "#/components/schemas/serverConfig" {
		t.Fatalf("unexpected server ref %v", ref)
	}
	if ref := property(t, app, "Backup")["$ref"]; ref != "#/components/schemas/serverConfig" {
		t.Fatalf("expected shared component for pointer field, got %v", ref)
	}
	if ref := property(t, app, "Primary")["$ref"]; ref != "#/components/schemas/appConfig" {
		t.Fatalf("expected recursive reference, got %v", ref)
	}

	server := component(t, doc, "serverConfig")
	if port := property(t, server, "Port"); port["type"] != "integer" || port["default"] != "8080" {
		t.Fatalf("unexpected port %#v", port)
	}
	if endpoint := property(t, server, "URL"); endpoint["format"] != "uri" || endpoint[ExtensionKey] != "url" {
		t.Fatalf("unexpected url %#v", endpoint)
	}
	if timeout := property(t, server, "Timeout"); timeout["format"] != "duration" {
		t.Fatalf("unexpected timeout %#v", timeout)
	}

	if _, err := json.Marshal(doc); err != nil {
		t.Fatalf("document should marshal: %v", err)
	}
}

func TestGenerateUniqueComponentNames(t *testing.T) {
	first := props.MustSchema("web server", props.Leaf[int]("port"))
	second := props.MustSchema("web-server", props.Leaf[string]("host"))
	root := props.MustSchema("1root",
		props.Nested("first", first),
		props.Nested("second", second),
	)

	doc, err := Generate(root, WithOpenAPIVersion("3.1.0"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc["openapi"] != "3.1.0" {
		t.Fatalf("expected overridden version, got %v", doc["openapi"])
	}
	component(t, doc, "_1root")
	component(t, doc, "web_server")
	component(t, doc, "web_server1")
}

func TestGenerateRejectsNilSchema(t *testing.T) {
	if _, err := Generate(nil); err == nil {
		t.Fatalf("expected error for nil schema")
	}
}

func TestTypeSchemaFallbacks(t *testing.T) {
	g := &generator{}
	cases := []struct {
		typ  reflect.Type
		want map[string]any
	}{
		{reflect.TypeFor[bool](), map[string]any{"type": "boolean"}},
		{reflect.TypeFor[float32](), map[string]any{"type": "number"}},
		{reflect.TypeFor[[]byte](), map[string]any{"type": "string", "format": "byte"}},
		{reflect.TypeFor[props.Char](), map[string]any{"type": "string", "minLength": 1, "maxLength": 1}},
		{reflect.TypeFor[*int](), map[string]any{"type": "integer", "nullable": true}},
		{reflect.TypeFor[[2]int](), map[string]any{"type": "array", "items": map[string]any{"type": "integer"}, "minItems": 2, "maxItems": 2}},
		{reflect.TypeFor[map[string]int](), map[string]any{"type": "string", "format": "go:map[string]int"}},
	}
	for _, tc := range cases {
		if got := g.typeSchema(tc.typ); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: expected %#v, got %#v", tc.typ, tc.want, got)
		}
	}
}
