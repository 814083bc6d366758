package props

import "fmt"

const (
	// Canonical scope names for the usual layering pattern. Earlier entries win.
	ScopeRuntime     = "runtime"
	ScopeEnvironment = "environment"
	ScopeFile        = "file"
	ScopeDefaults    = "defaults"
	// ScopeImport names layers supplied as call-time arguments to nested accessors.
	ScopeImport = "import"
)

// EnvironmentLayer wraps the live process environment in a layer.
func EnvironmentLayer() Layer {
	return NewLayer(
		NewScope(ScopeEnvironment, WithScopeLabel("Environment")),
		EnvironmentSource(),
	)
}

// RuntimeEnvFileDefaults assembles the canonical stack (runtime overrides →
// environment → files in the given order → defaults). Nil maps are skipped.
func RuntimeEnvFileDefaults(runtime Properties, files []Layer, defaults Properties) *Store {
	layers := make([]Layer, 0, len(files)+3)
	if runtime != nil {
		layers = append(layers, NewLayer(NewScope(ScopeRuntime, WithScopeLabel("Runtime Overrides")), runtime))
	}
	layers = append(layers, EnvironmentLayer())
	layers = append(layers, files...)
	if defaults != nil {
		layers = append(layers, NewLayer(NewScope(ScopeDefaults, WithScopeLabel("Defaults")), defaults))
	}
	return NewStore(layers...)
}

func importScope(index int) Scope {
	return NewScope(fmt.Sprintf("%s[%d]", ScopeImport, index), WithScopeLabel("Call Argument"))
}
