package props

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"
	"unicode"
)

// Evaluate runs expr against the view. Leaf accessors are bound by name with
// their converted values, nested accessors as maps, the effective properties
// as props and the schema name as schema.
func (v *View) Evaluate(expr string) (Response[any], error) {
	return v.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith runs expr with ctx. Snapshot, Properties and SchemaName are
// filled from the view when empty.
func (v *View) EvaluateWith(ctx RuleContext, expr string) (Response[any], error) {
	if strings.TrimSpace(expr) == "" {
		return Response[any]{}, fmt.Errorf("props: expression must not be empty")
	}
	evaluator := v.resolveEvaluator()
	if ctx.SchemaName == "" {
		ctx.SchemaName = v.schema.Name()
	}
	if ctx.Snapshot == nil {
		snapshot, err := v.Snapshot()
		if err != nil {
			return Response[any]{}, err
		}
		ctx.Snapshot = snapshot
	}
	if ctx.Properties == nil {
		ctx.Properties = v.Effective().Flatten()
	}
	ctx = ctx.withDefaults()

	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expr)
	engine := evaluatorEngineName(evaluator)
	err = wrapEvaluationError(engine, expr, ctx.schemaLabel(), err)
	v.cfg.evaluatorLogger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Schema:   ctx.schemaLabel(),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return Response[any]{}, err
	}
	return Response[any]{Value: value}, nil
}

// Snapshot resolves every accessor of the view into a map keyed by accessor
// name. Unset leaves map to nil. A nested accessor whose schema is already
// being walked is omitted.
func (v *View) Snapshot() (map[string]any, error) {
	return v.snapshot(map[*Schema]bool{})
}

func (v *View) snapshot(walking map[*Schema]bool) (map[string]any, error) {
	walking[v.schema] = true
	defer delete(walking, v.schema)

	out := make(map[string]any, len(v.schema.Accessors()))
	for _, accessor := range v.schema.Accessors() {
		if accessor.IsNested() {
			if walking[accessor.Schema()] {
				continue
			}
			nested, err := v.Nested(accessor.Name())
			if err != nil {
				return nil, err
			}
			values, err := nested.snapshot(walking)
			if err != nil {
				return nil, err
			}
			out[accessor.Name()] = values
			continue
		}
		value, err := v.Value(accessor.Name())
		if err != nil {
			return nil, err
		}
		out[accessor.Name()] = snapshotValue(value)
	}
	return out, nil
}

// snapshotValue maps converted values onto the scalar, list and map shapes
// every engine understands.
func snapshotValue(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case string, bool, int64, float64, time.Time:
		return typed
	case time.Duration:
		return typed.String()
	case url.URL:
		return typed.String()
	case []byte:
		return string(typed)
	case fmt.Stringer:
		return typed.String()
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = snapshotValue(rv.Index(i).Interface())
		}
		return items
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return snapshotValue(rv.Elem().Interface())
	default:
		return fmt.Sprint(value)
	}
}

// reservedBinding reports whether key collides with a built-in binding or is
// not usable as an identifier.
func reservedBinding(key string) bool {
	switch key {
	case "now", "args", "metadata", "props", "schema", "call":
		return true
	}
	for i, r := range key {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return true
	}
	return key == ""
}

// ruleBindings is the variable set shared by every engine: the built-ins plus
// each usable snapshot key. With a registry, call(name, args...) is bound too.
func ruleBindings(ctx RuleContext, registry *FunctionRegistry) map[string]any {
	bindings := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"props":    ctx.propertiesBinding(),
		"schema":   ctx.schemaLabel(),
	}
	for key, value := range snapshotAsMap(ctx.Snapshot) {
		if !reservedBinding(key) {
			bindings[key] = value
		}
	}
	if registry != nil {
		bindings["call"] = registry.Call
	}
	return bindings
}

func (v *View) resolveEvaluator() Evaluator {
	if v.cfg.evaluator != nil {
		return v.cfg.evaluator
	}
	var opts []ExprEvaluatorOption
	if v.cfg.programCache != nil {
		opts = append(opts, ExprWithProgramCache(v.cfg.programCache))
	}
	if v.cfg.functions != nil {
		opts = append(opts, ExprWithFunctionRegistry(v.cfg.functions))
	}
	return NewExprEvaluator(opts...)
}

func evaluatorEngineName(e Evaluator) string {
	switch fmt.Sprintf("%T", e) {
	case "*props.exprEvaluator":
		return "expr"
	case "*props.celEvaluator":
		return "cel"
	case "*props.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
