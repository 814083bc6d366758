package loader

import (
	"testing"

	props "github.com/goliatone/go-props"
)

func TestEnvKey(t *testing.T) {
	cases := []struct {
		prefix, name, want string
		ok                 bool
	}{
		{"APP_", "APP_WEB_PORT", "web.port", true},
		{"APP_", "APP_DEBUG", "debug", true},
		{"APP_", "OTHER_DEBUG", "", false},
		{"APP_", "APP_", "", false},
		{"", "HOME", "home", true},
	}
	for _, tc := range cases {
		got, ok := EnvKey(tc.prefix, tc.name)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("EnvKey(%q, %q) = %q, %v; want %q, %v", tc.prefix, tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEnvLoaderFiltersByPrefix(t *testing.T) {
	layer, err := Env{
		Prefix: "APP_",
		Environ: func() []string {
			return []string{"APP_WEB_PORT=9090", "APP_NAME=a=b", "PATH=/bin", "=ignored"}
		},
	}.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if layer.Scope.Name != props.ScopeEnvironment {
		t.Fatalf("expected environment scope, got %q", layer.Scope.Name)
	}
	store := props.NewStore(layer)
	mustGet(t, store, "web.port", "9090")
	mustGet(t, store, "name", "a=b")
	if _, ok := store.Get("path"); ok {
		t.Fatalf("expected unprefixed variables to be skipped")
	}
}

func TestEnvLoaderUsesProcessEnvironment(t *testing.T) {
	t.Setenv("PROPSTEST_WEB_HOST", "example.org")

	layer, err := Env{Prefix: "PROPSTEST_"}.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	mustGet(t, props.NewStore(layer), "web.host", "example.org")
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "app.toml", "[web]\nport = 8080\nhost = \"localhost\"\n")
	env := Env{Prefix: "APP_", Environ: func() []string { return []string{"APP_WEB_PORT=7070"} }}

	store, err := Store(env, Document{Path: path})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	mustGet(t, store, "web.port", "7070")
	mustGet(t, store, "web.host", "localhost")
}
