package props

import (
	"fmt"
	"time"

	"github.com/goliatone/go-props/pkg/activity"
)

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// RuleContext carries inputs needed when evaluating an expression.
type RuleContext struct {
	Snapshot   any
	Now        *time.Time
	Args       map[string]any
	Metadata   map[string]any
	Properties map[string]string
	SchemaName string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	if ctx.Properties == nil {
		ctx.Properties = map[string]string{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) schemaLabel() string {
	if ctx.SchemaName != "" {
		return ctx.SchemaName
	}
	return "unknown"
}

// propertiesBinding exposes the flattened store as map[string]any so every
// engine can index it (props["web.port"]).
func (ctx RuleContext) propertiesBinding() map[string]any {
	out := make(map[string]any, len(ctx.Properties))
	for key, value := range ctx.Properties {
		out[key] = value
	}
	return out
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Option configures a View and the resolver behind it. Nested views inherit
// the configuration of the view that produced them.
type Option func(*viewConfig)

type viewConfig struct {
	converters       *ConverterRegistry
	decryptor        Decryptor
	resolutionLogger ResolutionLogger
	evaluator        Evaluator
	programCache     ProgramCache
	functions        *FunctionRegistry
	evaluatorLogger  EvaluatorLogger
	activityHooks    activity.Hooks
	activityChannel  string
	converterOpts    []ConverterOption
	err              error
}

func applyOptions(opts []Option) viewConfig {
	cfg := viewConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.converters == nil {
		cfg.converters = NewConverterRegistry()
	}
	if len(cfg.converterOpts) > 0 {
		if err := cfg.converters.Apply(cfg.converterOpts...); err != nil {
			cfg.err = fmt.Errorf("props: converter options: %w", err)
		}
		cfg.converterOpts = nil
	}
	if cfg.decryptor == nil {
		cfg.decryptor = IdentityDecryptor{}
	}
	if cfg.resolutionLogger == nil {
		cfg.resolutionLogger = noopLogger{}
	}
	if cfg.evaluatorLogger == nil {
		cfg.evaluatorLogger = noopLogger{}
	}
	return cfg
}

// WithConverters replaces the converter registry. The registry is cloned so
// later registrations by the caller do not leak into resolution.
func WithConverters(registry *ConverterRegistry) Option {
	return func(cfg *viewConfig) {
		if registry == nil {
			return
		}
		cfg.converters = registry.Clone()
	}
}

// WithConverterOptions extends the registry in use with additional rules.
// They are registered after every option has been applied, so they extend a
// registry supplied by WithConverters regardless of option order. A failed
// registration is reported by every resolution of the view.
func WithConverterOptions(opts ...ConverterOption) Option {
	return func(cfg *viewConfig) {
		cfg.converterOpts = append(cfg.converterOpts, opts...)
	}
}

// WithDecryptor configures the decryptor used for encrypted accessors.
func WithDecryptor(decryptor Decryptor) Option {
	return func(cfg *viewConfig) {
		cfg.decryptor = decryptor
	}
}

// WithEvaluator configures the rule evaluator used by View.Evaluate.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *viewConfig) {
		cfg.evaluator = e
	}
}
