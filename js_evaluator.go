//go:build js_eval

package props

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	opts jsOptions
}

// NewJSEvaluator constructs an Evaluator backed by goja. Each evaluation runs
// in a fresh runtime.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	return &jsEvaluator{opts: newJSOptions(opts)}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("js", fmt.Errorf("expression must not be empty"))
	}
	if cache := e.opts.cache; cache != nil {
		if cached, ok := cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return &jsCompiledRule{evaluator: e, expression: expression, program: program}, nil
			}
		}
	}
	// Wrapping in a function lets the expression be a bare value.
	program, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, "", err)
	}
	if cache := e.opts.cache; cache != nil {
		cache.Set(expression, program)
	}
	return &jsCompiledRule{evaluator: e, expression: expression, program: program}, nil
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("js", fmt.Errorf("compiled rule missing evaluator"))
	}
	ctx = ctx.withDefaults()
	registry := r.evaluator.opts.registry

	vm := goja.New()
	bindings := ruleBindings(ctx, registry)
	for _, name := range registry.Names() {
		bindings[name] = registry.Bind(name)
	}
	for key, value := range bindings {
		if err := vm.Set(key, value); err != nil {
			return nil, wrapEvaluationError("js", r.expression, ctx.schemaLabel(), err)
		}
	}

	if timeout := r.evaluator.opts.timeout; timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			vm.Interrupt(fmt.Sprintf("evaluation exceeded %s", timeout))
		})
		defer timer.Stop()
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, wrapEvaluationError("js", r.expression, ctx.schemaLabel(), err)
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool {
	return true
}
