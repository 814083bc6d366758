package props

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-props/pkg/activity"
)

// ResolutionContext pairs an accessor with the store and call-time arguments
// of one invocation.
type ResolutionContext struct {
	Schema   *Schema
	Accessor Accessor
	Store    *Store
	Args     []any
}

// Resolution is the outcome of resolving one accessor. Leaf accessors fill
// Value (Set is false when neither a layer nor a default supplies the key);
// nested accessors fill Schema and Store with the derived view binding.
type Resolution struct {
	Value     any
	Raw       string
	Set       bool
	Found     bool
	Defaulted bool
	Schema    *Schema
	Store     *Store
	Shape     ArgShape
}

// Nested reports whether the resolution describes a nested view.
func (r Resolution) Nested() bool {
	return r.Schema != nil
}

// Resolver turns accessor declarations into values. It holds no per-call
// state and is safe for concurrent use.
type Resolver struct {
	converters *ConverterRegistry
	decryptor  Decryptor
	logger     ResolutionLogger
	emitter    *activity.Emitter
	err        error
}

// NewResolver constructs a resolver from options.
func NewResolver(opts ...Option) *Resolver {
	return newResolver(applyOptions(opts))
}

func newResolver(cfg viewConfig) *Resolver {
	return &Resolver{
		converters: cfg.converters,
		err:        cfg.err,
		decryptor:  cfg.decryptor,
		logger:     cfg.resolutionLogger,
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled: len(cfg.activityHooks) > 0,
			Channel: cfg.activityChannel,
		}),
	}
}

// Converters returns the registry used for conversion.
func (r *Resolver) Converters() *ConverterRegistry {
	return r.converters
}

// Resolve runs lookup, decryption, expansion, formatting and conversion for a
// leaf accessor, or derives the store of a nested accessor.
func (r *Resolver) Resolve(rc ResolutionContext) (Resolution, error) {
	start := time.Now()
	res, err := r.resolve(rc)
	r.logger.LogResolution(ResolutionLogEvent{
		Schema:    rc.Schema.Name(),
		Accessor:  rc.Accessor.Name(),
		Key:       rc.Accessor.Key(),
		Found:     res.Found,
		Defaulted: res.Defaulted,
		Nested:    rc.Accessor.IsNested(),
		Duration:  time.Since(start),
		Err:       err,
	})
	r.notify(rc, res, err)
	return res, err
}

func (r *Resolver) resolve(rc ResolutionContext) (Resolution, error) {
	if r.err != nil {
		return Resolution{}, r.err
	}
	accessor := rc.Accessor
	if accessor.IsNested() {
		return r.resolveNested(rc)
	}

	res := Resolution{}
	value, found := rc.Store.Get(accessor.Key())
	res.Found = found
	if !found {
		value, res.Defaulted = accessor.Default()
		if !res.Defaulted {
			return res, nil
		}
	}

	if accessor.Encrypted() {
		decrypted, err := r.decryptor.Decrypt(value)
		if err != nil {
			return res, fmt.Errorf("props: decrypt %q: %w", accessor.Key(), err)
		}
		value = decrypted
	}

	if accessor.Enabled(FeatureVariableExpansion) {
		value = Expand(value, schemaLookup{store: rc.Store, schema: rc.Schema})
	}

	if accessor.Enabled(FeatureParameterFormatting) && len(rc.Args) > 0 {
		formatted, err := format(value, rc.Args)
		if err != nil {
			return res, err
		}
		value = formatted
	}

	converted, err := r.converters.ConvertWithSeparator(accessor.Type(), value, accessor.Separator())
	if err != nil {
		return res, err
	}
	res.Raw = value
	res.Value = converted
	res.Set = true
	return res, nil
}

func (r *Resolver) resolveNested(rc ResolutionContext) (Resolution, error) {
	imports := ClassifyArgs(rc.Args)
	if imports.Shape == InvalidArgs {
		return Resolution{Shape: InvalidArgs}, &UnsupportedArgumentsError{
			Accessor: rc.Accessor.Name(),
			Args:     rc.Args,
		}
	}
	return Resolution{
		Set:    true,
		Schema: rc.Accessor.Schema(),
		Store:  rc.Store.Derive(imports.Layers...),
		Shape:  imports.Shape,
	}, nil
}

func (r *Resolver) notify(rc ResolutionContext, res Resolution, err error) {
	if !r.emitter.Enabled() {
		return
	}
	input := activity.ConfigEventInput{
		Schema:   rc.Schema.Name(),
		Accessor: rc.Accessor.Name(),
		Key:      rc.Accessor.Key(),
	}
	switch {
	case err != nil:
		input.Err = err
		_ = r.emitter.Emit(context.Background(), activity.BuildResolveFailedEvent(input))
	case res.Nested():
		input.NestedSchema = res.Schema.Name()
		input.ArgShape = res.Shape.String()
		for _, layer := range res.Store.Layers() {
			input.Layers = append(input.Layers, activity.LayerContext{
				Name:       layer.Scope.Name,
				SnapshotID: layer.SnapshotID,
			})
		}
		_ = r.emitter.Emit(context.Background(), activity.BuildViewDerivedEvent(input))
	}
}

// format applies args to pattern with fmt.Sprintf. fmt reports mismatches
// inline ("%!d(MISSING)", "%!(EXTRA ...)"); a marker not already present in
// the pattern or in an argument's own text is a FormatError.
func format(pattern string, args []any) (string, error) {
	out := fmt.Sprintf(pattern, args...)
	expected := strings.Count(pattern, "%!")
	for _, arg := range args {
		expected += strings.Count(fmt.Sprint(arg), "%!")
	}
	if strings.Count(out, "%!") > expected {
		return "", &FormatError{Format: pattern, Args: args, Output: out}
	}
	return out, nil
}

// schemaLookup resolves expansion variables against the store first and the
// schema's declared defaults second, so one accessor's default can reference
// another accessor's default.
type schemaLookup struct {
	store  *Store
	schema *Schema
}

func (l schemaLookup) Get(key string) (string, bool) {
	if value, ok := l.store.Get(key); ok {
		return value, true
	}
	return l.schema.defaultFor(key)
}
