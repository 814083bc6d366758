package props

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-props/pkg/activity"
)

type mode string

const (
	modeDev  mode = "dev"
	modeProd mode = "prod"
)

var (
	webServerSchema = MustSchema("WebServer",
		Leaf[int]("port", WithDefault("8080")),
		Leaf[string]("url", WithDefault("http://localhost:${port}/myApp")),
	)
	appSchema = MustSchema("MyAppConfig",
		Leaf[string]("title", WithDefault("My Super App")),
		Nested("webServer", webServerSchema),
		Leaf[string]("owner"),
		Leaf[[]int]("retries"),
		Leaf[mode]("mode", WithDefault("dev")),
		Leaf[string]("greeting", WithDefault("Hello %s, you are #%d")),
		Leaf[string]("literal", WithDefault("${port} is %d"), WithDisabledFeatures(FeatureVariableExpansion, FeatureParameterFormatting)),
		Leaf[string]("secret", WithEncryption()),
		Leaf[string]("dataDir", WithKey("app.data.dir"), WithDefault("${user.home}/data")),
	)
)

func newAppView(layers ...Layer) *View {
	return New(appSchema, NewStore(layers...), WithConverterOptions(WithEnum(map[string]mode{
		"dev":  modeDev,
		"prod": modeProd,
	})))
}

func TestNestedViewExpandsAgainstItsOwnDefaults(t *testing.T) {
	view := newAppView()

	if title := MustGet[string](view, "title"); title != "My Super App" {
		t.Fatalf("unexpected title %q", title)
	}
	server := view.MustNested("webServer")
	url, ok, err := Get[string](server, "url")
	if err != nil || !ok {
		t.Fatalf("url: ok=%v err=%v", ok, err)
	}
	if url != "http://localhost:8080/myApp" {
		t.Fatalf("expected expanded url, got %q", url)
	}
	if port := MustGet[int](server, "port"); port != 8080 {
		t.Fatalf("expected default port, got %d", port)
	}
}

func TestNestedViewArgumentsOverrideParent(t *testing.T) {
	view := newAppView(PropertiesLayer("file", map[string]string{"port": "7070"}))

	server := view.MustNested("webServer", map[string]string{"port": "9090"})
	if got := MustGet[string](server, "url"); got != "http://localhost:9090/myApp" {
		t.Fatalf("expected argument layer to win, got %q", got)
	}
	if got := MustGet[string](view.MustNested("webServer"), "url"); got != "http://localhost:7070/myApp" {
		t.Fatalf("expected parent store without arguments, got %q", got)
	}
}

func TestNestedViewArgumentShapes(t *testing.T) {
	view := newAppView(PropertiesLayer("file", map[string]string{"port": "1"}))

	cases := []struct {
		name string
		args []any
		want int
	}{
		{name: "no args", args: nil, want: 1},
		{name: "mapping list", args: []any{[]map[string]string{{"port": "2"}, {"port": "3"}}}, want: 2},
		{name: "individual mappings", args: []any{map[string]string{"other": "x"}, Properties{"port": "4"}}, want: 4},
		{name: "layer", args: []any{PropertiesLayer("tenant", map[string]string{"port": "5"})}, want: 5},
		{name: "any map", args: []any{map[string]any{"port": 6}}, want: 6},
		{name: "store", args: []any{NewStore(PropertiesLayer("s", map[string]string{"port": "7"}))}, want: 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server, err := view.Nested("webServer", tc.args...)
			if err != nil {
				t.Fatalf("nested: %v", err)
			}
			if got := MustGet[int](server, "port"); got != tc.want {
				t.Fatalf("expected port %d, got %d", tc.want, got)
			}
		})
	}
}

func TestNestedViewRejectsUnsupportedArguments(t *testing.T) {
	view := newAppView()

	for _, args := range [][]any{
		{"port=1"},
		{map[string]string{"port": "1"}, 42},
		{nil},
		{[]string{"a"}},
	} {
		_, err := view.Nested("webServer", args...)
		var unsupported *UnsupportedArgumentsError
		if !errors.As(err, &unsupported) {
			t.Fatalf("args %v: expected UnsupportedArgumentsError, got %v", args, err)
		}
		if !errors.Is(err, ErrUnsupportedArguments) || unsupported.Accessor != "webServer" {
			t.Fatalf("unexpected error %+v", unsupported)
		}
	}
}

func TestNestedViewWithoutArgumentsMatchesParentStore(t *testing.T) {
	view := newAppView(
		PropertiesLayer("runtime", map[string]string{"a": "1"}),
		PropertiesLayer("file", map[string]string{"a": "2", "b": "3"}),
	)
	server := view.MustNested("webServer")
	for _, key := range []string{"a", "b", "c"} {
		want, wantOK := view.Store().Get(key)
		got, gotOK := server.Store().Get(key)
		if got != want || gotOK != wantOK {
			t.Fatalf("key %q: nested=%q/%v parent=%q/%v", key, got, gotOK, want, wantOK)
		}
	}
}

func TestUnsetLeafIsNotAnError(t *testing.T) {
	view := newAppView()

	owner, ok, err := Get[string](view, "owner")
	if err != nil || ok || owner != "" {
		t.Fatalf("expected unset sentinel, got %q ok=%v err=%v", owner, ok, err)
	}
	value, err := view.Value("owner")
	if err != nil || value != nil {
		t.Fatalf("expected nil value, got %v err=%v", value, err)
	}
}

func TestLeafConversion(t *testing.T) {
	view := newAppView(PropertiesLayer("file", map[string]string{"retries": "1,2,3", "mode": "prod"}))

	if got := MustGet[[]int](view, "retries"); len(got) != 3 || got[2] != 3 {
		t.Fatalf("unexpected retries %v", got)
	}
	if got := MustGet[mode](view, "mode"); got != modeProd {
		t.Fatalf("unexpected mode %q", got)
	}

	bad := newAppView(PropertiesLayer("file", map[string]string{"mode": "PROD"}))
	_, _, err := Get[mode](bad, "mode")
	var convErr *ConversionError
	if !errors.As(err, &convErr) || convErr.Value != "PROD" {
		t.Fatalf("expected ConversionError for unknown enum, got %v", err)
	}
}

func TestExpansionIsSinglePass(t *testing.T) {
	view := newAppView(PropertiesLayer("file", map[string]string{
		"owner": "${a}",
		"a":     "${b}",
		"b":     "X",
	}))
	if got := MustGet[string](view, "owner"); got != "${b}" {
		t.Fatalf("expected single pass expansion, got %q", got)
	}
}

func TestExplicitKeyAndMissingVariable(t *testing.T) {
	view := newAppView()
	if got := MustGet[string](view, "dataDir"); got != "${user.home}/data" {
		t.Fatalf("expected unknown reference to stay literal, got %q", got)
	}
	view = view.LayerWith(PropertiesLayer("system", map[string]string{"user.home": "/home/app"}))
	if got := MustGet[string](view, "dataDir"); got != "/home/app/data" {
		t.Fatalf("expected expansion after layering, got %q", got)
	}
}

func TestParameterFormatting(t *testing.T) {
	view := newAppView()

	got, err := view.Value("greeting", "Ada", 7)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if got != "Hello Ada, you are #7" {
		t.Fatalf("unexpected greeting %q", got)
	}

	if got := MustGet[string](view, "greeting"); got != "Hello %s, you are #%d" {
		t.Fatalf("expected no formatting without args, got %q", got)
	}

	got, err = view.Value("greeting", "50%!", 3)
	if err != nil {
		t.Fatalf("argument containing a percent marker: %v", err)
	}
	if got != "Hello 50%!, you are #3" {
		t.Fatalf("unexpected greeting %q", got)
	}

	for _, args := range [][]any{{"Ada"}, {"Ada", 7, "extra"}, {"Ada", "seven"}, {"50%!", "seven"}} {
		_, err := view.Value("greeting", args...)
		var formatErr *FormatError
		if !errors.As(err, &formatErr) || !errors.Is(err, ErrFormat) {
			t.Fatalf("args %v: expected FormatError, got %v", args, err)
		}
	}
}

func TestDisabledFeatures(t *testing.T) {
	view := newAppView(PropertiesLayer("file", map[string]string{"port": "1"}))
	got, err := view.Value("literal", 5)
	if err != nil {
		t.Fatalf("literal: %v", err)
	}
	if got != "${port} is %d" {
		t.Fatalf("expected raw value, got %q", got)
	}

	disabled, err := webServerSchema.WithDisabledFeatures(FeatureVariableExpansion)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	server := New(disabled, NewStore())
	if got := MustGet[string](server, "url"); got != "http://localhost:${port}/myApp" {
		t.Fatalf("expected schema-wide expansion off, got %q", got)
	}
}

func TestEncryptedAccessorUsesDecryptor(t *testing.T) {
	store := NewStore(PropertiesLayer("file", map[string]string{"secret": "enc:${owner}", "owner": "ops"}))
	decryptor := DecryptorFunc(func(value string) (string, error) {
		if !strings.HasPrefix(value, "enc:") {
			return "", fmt.Errorf("not encrypted")
		}
		return strings.TrimPrefix(value, "enc:"), nil
	})

	view := New(appSchema, store, WithDecryptor(decryptor))
	if got := MustGet[string](view, "secret"); got != "ops" {
		t.Fatalf("expected decrypted and expanded value, got %q", got)
	}

	plain := New(appSchema, store)
	if got := MustGet[string](plain, "secret"); got != "enc:ops" {
		t.Fatalf("expected identity decryptor, got %q", got)
	}

	failing := New(appSchema, NewStore(PropertiesLayer("file", map[string]string{"secret": "plain"})), WithDecryptor(decryptor))
	if _, err := failing.Value("secret"); err == nil {
		t.Fatalf("expected decrypt failure")
	}
}

func TestDelegatedSignatures(t *testing.T) {
	view := newAppView(
		PropertiesLayer("runtime", map[string]string{"owner": "ops"}),
		PropertiesLayer("file", map[string]string{"owner": "dev", "retries": "1"}),
	)

	var buf bytes.Buffer
	if err := view.List(&buf); err != nil {
		t.Fatalf("list: %v", err)
	}
	listing := buf.String()
	for _, line := range []string{"owner=ops\n", "retries=1\n", "title=My Super App\n", "mode=dev\n"} {
		if !strings.Contains(listing, line) {
			t.Fatalf("expected %q in listing:\n%s", line, listing)
		}
	}
	if strings.Contains(listing, "owner=dev") {
		t.Fatalf("expected shadowed value to be hidden:\n%s", listing)
	}

	filled := map[string]string{}
	if _, err := view.Value("fill", filled); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if filled["owner"] != "ops" || filled["mode"] != "dev" {
		t.Fatalf("unexpected fill result %v", filled)
	}

	if _, err := view.Value("list"); !errors.Is(err, ErrUnknownAccessor) {
		t.Fatalf("expected list without writer to resolve as property, got %v", err)
	}
}

func TestConverterOptionsApplyRegardlessOfOrder(t *testing.T) {
	registry := NewConverterRegistry()
	view := New(appSchema, NewStore(PropertiesLayer("file", map[string]string{"mode": "prod"})),
		WithConverterOptions(WithEnum(map[string]mode{"dev": modeDev, "prod": modeProd})),
		WithConverters(registry),
	)
	if got := MustGet[mode](view, "mode"); got != modeProd {
		t.Fatalf("expected enum registered on the supplied registry, got %q", got)
	}
	if names := registry.EnumNames(reflect.TypeFor[mode]()); len(names) != 0 {
		t.Fatalf("expected caller registry untouched, got %v", names)
	}

	broken := New(appSchema, NewStore(),
		WithConverterOptions(WithEnum(map[string]mode{"dev": modeDev})),
		WithConverterOptions(WithEnum(map[string]mode{"prod": modeProd})),
	)
	if _, err := broken.Value("title"); err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected registration failure on resolve, got %v", err)
	}
	if err := broken.List(&bytes.Buffer{}); err == nil {
		t.Fatalf("expected registration failure on delegated list")
	}
}

func TestDelegateBuildsStoreOnlyOnMatch(t *testing.T) {
	resolver := NewResolver()
	schema := MustSchema("app", Leaf[string]("owner"))
	builds := 0
	effective := func() *Store {
		builds++
		return NewStore(PropertiesLayer("file", map[string]string{"owner": "ops"}))
	}

	if _, ok, _ := resolver.Delegate(schema, effective, "owner", nil); ok {
		t.Fatalf("expected plain accessor not to be delegated")
	}
	if _, ok, _ := resolver.Delegate(schema, effective, "fill", []any{"not a map"}); ok {
		t.Fatalf("expected mismatched argument types not to be delegated")
	}
	if builds != 0 {
		t.Fatalf("expected no store to be built, got %d builds", builds)
	}

	filled := map[string]string{}
	if _, ok, err := resolver.Delegate(schema, effective, "fill", []any{filled}); !ok || err != nil {
		t.Fatalf("fill: ok=%v err=%v", ok, err)
	}
	if builds != 1 || filled["owner"] != "ops" {
		t.Fatalf("unexpected fill: builds=%d result=%v", builds, filled)
	}
}

func TestViewErrors(t *testing.T) {
	view := newAppView()

	if _, err := view.Value("nope"); !errors.Is(err, ErrUnknownAccessor) {
		t.Fatalf("expected ErrUnknownAccessor, got %v", err)
	}
	if _, err := view.Nested("title"); !errors.Is(err, ErrNotNested) {
		t.Fatalf("expected ErrNotNested, got %v", err)
	}
	if _, _, err := Get[int](view, "title"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, _, err := Get[string](view, "webServer"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch for nested, got %v", err)
	}
	nested, ok, err := Get[*View](view, "webServer")
	if err != nil || !ok || nested.Schema() != webServerSchema {
		t.Fatalf("expected nested view through Get, got %v ok=%v err=%v", nested, ok, err)
	}
	value, err := view.Value("webServer")
	if _, isView := value.(*View); err != nil || !isView {
		t.Fatalf("expected *View from Value, got %T err=%v", value, err)
	}
}

func TestViewTraceIncludesDeclaredDefaults(t *testing.T) {
	view := newAppView(PropertiesLayer("file", map[string]string{"owner": "ops"}, WithSnapshotID("file-1")))

	trace := view.Trace("title")
	if !trace.Found || trace.Value != "My Super App" {
		t.Fatalf("unexpected trace %+v", trace)
	}
	last := trace.Layers[len(trace.Layers)-1]
	if last.Scope.Name != ScopeDefaults || !last.Effective {
		t.Fatalf("expected defaults layer to be effective, got %+v", last)
	}

	owner := view.Trace("owner")
	if !owner.Layers[0].Effective || owner.Layers[0].SnapshotID != "file-1" {
		t.Fatalf("expected file layer to win, got %+v", owner.Layers[0])
	}
}

func TestResolutionLoggerAndActivityHooks(t *testing.T) {
	var events []ResolutionLogEvent
	capture := &activity.CaptureHook{}
	view := New(appSchema, NewStore(PropertiesLayer("file", map[string]string{"mode": "bogus"})),
		WithResolutionLogger(ResolutionLoggerFunc(func(event ResolutionLogEvent) {
			events = append(events, event)
		})),
		WithActivityHooks(activity.Hooks{nil, capture}),
		WithActivityChannel("audit"),
		WithConverterOptions(WithEnum(map[string]mode{"dev": modeDev})),
	)

	if hooks := view.ActivityHooks(); len(hooks) != 1 {
		t.Fatalf("expected nil hooks to be dropped, got %d", len(hooks))
	}

	server := view.MustNested("webServer", map[string]string{"port": "1"})
	_ = MustGet[int](server, "port")
	if _, err := view.Value("mode"); err == nil {
		t.Fatalf("expected conversion failure")
	}

	if len(events) != 3 {
		t.Fatalf("expected three resolution events, got %d", len(events))
	}
	if !events[0].Nested || events[1].Key != "port" || !events[1].Found || events[2].Err == nil {
		t.Fatalf("unexpected resolution events %+v", events)
	}

	if len(capture.Events) != 2 {
		t.Fatalf("expected two activity events, got %d", len(capture.Events))
	}
	derived := capture.Events[0]
	if derived.Verb != activity.VerbViewDerived || derived.ObjectID != "MyAppConfig.webServer" || derived.Channel != "audit" {
		t.Fatalf("unexpected derived event %+v", derived)
	}
	if layers := derived.Metadata["layers"].([]string); len(layers) != 2 || layers[0] != "import[0]" || layers[1] != "file" {
		t.Fatalf("unexpected derived layers %v", layers)
	}
	failed := capture.Events[1]
	if failed.Verb != activity.VerbResolveFailed || failed.Metadata["key"] != "mode" {
		t.Fatalf("unexpected failure event %+v", failed)
	}
}

func TestViewsAreSafeForConcurrentUse(t *testing.T) {
	view := newAppView(PropertiesLayer("file", map[string]string{"retries": "1,2"}))
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(i int) {
			server, err := view.Nested("webServer", map[string]string{"port": fmt.Sprint(8000 + i)})
			if err != nil {
				done <- err
				return
			}
			want := fmt.Sprintf("http://localhost:%d/myApp", 8000+i)
			if got := MustGet[string](server, "url"); got != want {
				done <- fmt.Errorf("expected %q, got %q", want, got)
				return
			}
			done <- nil
		}(i)
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
}
