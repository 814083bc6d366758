package props

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// Function is a helper callable from expressions, for example
// hasPrefix(props["db.url"], "postgres").
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions keyed by name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("props: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("props: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("props: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]Function, len(r.functions)),
	}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("props: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("props: function %q not registered", name)
	}
	return fn(args...)
}

// Bind returns a function that calls the helper registered for name when it
// is invoked, so a later Register is still reachable.
func (r *FunctionRegistry) Bind(name string) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		return r.Call(name, args...)
	}
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry exposes the functions in registry to expressions
// evaluated by the view. The registry is cloned.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *viewConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for expressions evaluated by the
// view. Duplicate names keep the first registration.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *viewConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// ConversionFunctions returns helpers that parse property strings with
// registry, so expressions can compare typed values:
//
//	toint(props["web.port"]) > 1024
//	toduration(props["timeout"]) < duration("1m")
//
// Each takes the raw value and, for tolist, an optional separator.
func ConversionFunctions(registry *ConverterRegistry) *FunctionRegistry {
	return conversionFunctions(func() *ConverterRegistry { return registry })
}

// WithConversionFunctions registers ConversionFunctions backed by the view's
// converter registry, including enums and rules added by other options.
func WithConversionFunctions() Option {
	return func(cfg *viewConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		helpers := conversionFunctions(func() *ConverterRegistry { return cfg.converters })
		for _, name := range helpers.Names() {
			_ = cfg.functions.Register(name, helpers.functions[name])
		}
	}
}

var conversionTargets = map[string]reflect.Type{
	"toint":      reflect.TypeFor[int64](),
	"tofloat":    reflect.TypeFor[float64](),
	"tobool":     reflect.TypeFor[bool](),
	"toduration": reflect.TypeFor[time.Duration](),
	"tolist":     reflect.TypeFor[[]string](),
}

func conversionFunctions(registry func() *ConverterRegistry) *FunctionRegistry {
	out := NewFunctionRegistry()
	for name, typ := range conversionTargets {
		_ = out.Register(name, conversionFunction(name, typ, registry))
	}
	return out
}

func conversionFunction(name string, typ reflect.Type, registry func() *ConverterRegistry) Function {
	return func(args ...any) (any, error) {
		if len(args) == 0 || len(args) > 2 {
			return nil, fmt.Errorf("props: %s expects a value and an optional separator, got %d arguments", name, len(args))
		}
		raw, ok := args[0].(string)
		if !ok {
			raw = fmt.Sprint(args[0])
		}
		sep := DefaultSeparator
		if len(args) == 2 {
			sep = fmt.Sprint(args[1])
		}
		converters := registry()
		if converters == nil {
			converters = NewConverterRegistry()
		}
		return converters.ConvertWithSeparator(typ, raw, sep)
	}
}
