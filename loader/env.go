package loader

import (
	"os"
	"strings"

	props "github.com/goliatone/go-props"
)

// Env captures environment variables sharing Prefix as a layer. The prefix is
// stripped, the remainder lower-cased and underscores become dots, so
// APP_WEB_PORT with prefix "APP_" is read as "web.port". The variables are
// copied at load time; use props.EnvironmentLayer for a live view of the raw
// names.
type Env struct {
	Prefix string
	// Environ lists KEY=value entries; defaults to os.Environ.
	Environ func() []string
	// Scope names the layer; defaults to props.ScopeEnvironment.
	Scope string
}

// Load implements Loader.
func (e Env) Load() (props.Layer, error) {
	environ := e.Environ
	if environ == nil {
		environ = os.Environ
	}
	values := props.Properties{}
	for _, entry := range environ() {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			continue
		}
		key, ok := EnvKey(e.Prefix, name)
		if !ok {
			continue
		}
		values[key] = value
	}

	scope := e.Scope
	if scope == "" {
		scope = props.ScopeEnvironment
	}
	label := "Environment"
	if e.Prefix != "" {
		label += " (" + e.Prefix + "*)"
	}
	return props.NewLayer(
		props.NewScope(scope, props.WithScopeLabel(label), props.WithScopeMetadata(map[string]any{"prefix": e.Prefix})),
		values,
	), nil
}

// EnvKey maps a variable name to a property key. ok is false when name does
// not carry prefix or nothing remains after stripping it.
func EnvKey(prefix, name string) (string, bool) {
	if !strings.HasPrefix(name, prefix) {
		return "", false
	}
	rest := strings.Trim(strings.TrimPrefix(name, prefix), "_")
	if rest == "" {
		return "", false
	}
	return strings.ToLower(strings.ReplaceAll(rest, "_", ".")), true
}
