// Package hydrate fills tagged structs from a configuration view.
package hydrate

import (
	"fmt"
	"reflect"
	"strings"
)

// Context identifies the configuration being hydrated.
type Context struct {
	Schema string
	Path   string
}

func (c Context) child(field string) Context {
	path := field
	if c.Path != "" {
		path = c.Path + "." + field
	}
	return Context{Schema: c.Schema, Path: path}
}

// Source resolves struct fields by name. Implementations return ok=false for
// unset fields, and a non-nil nested Source for fields backed by a nested
// configuration view.
type Source interface {
	Resolve(name string) (value any, nested Source, ok bool, err error)
}

// PreHook runs before any field is resolved and may veto decoding.
type PreHook func(Context) error

// PostHook lets callers adjust or validate the hydrated struct after decoding.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder hydrates struct T from a Source.
type Decoder[T any] struct {
	preHooks  []PreHook
	postHooks []PostHook[T]
	skipUnset bool
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithUnsetPreserved keeps the values already present in the target for
// fields the source leaves unset. By default such fields are zeroed.
func WithUnsetPreserved[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.skipUnset = true
	}
}

// NewDecoder constructs a decoder.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode hydrates a fresh T from src.
func (d *Decoder[T]) Decode(ctx Context, src Source) (T, error) {
	var result T
	err := d.DecodeInto(ctx, src, &result)
	return result, err
}

// DecodeInto hydrates target from src applying configured hooks.
func (d *Decoder[T]) DecodeInto(ctx Context, src Source, target *T) error {
	if src == nil {
		return fmt.Errorf("hydrate: source is nil for schema %q", ctx.Schema)
	}
	if target == nil {
		return fmt.Errorf("hydrate: target is nil for schema %q", ctx.Schema)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx); err != nil {
			return fmt.Errorf("hydrate: pre-hook for schema %q failed: %w", ctx.Schema, err)
		}
	}

	value := reflect.ValueOf(target).Elem()
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			value.Set(reflect.New(value.Type().Elem()))
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return fmt.Errorf("hydrate: target %s is not a struct", value.Type())
	}
	if err := fill(ctx, value, src, d.skipUnset); err != nil {
		return err
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, target); err != nil {
			return fmt.Errorf("hydrate: post-hook for schema %q failed: %w", ctx.Schema, err)
		}
	}
	return nil
}

func fill(ctx Context, target reflect.Value, src Source, skipUnset bool) error {
	typ := target.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() || strings.TrimSpace(field.Tag.Get("props")) == "-" {
			continue
		}
		fieldCtx := ctx.child(field.Name)
		value, nested, ok, err := src.Resolve(field.Name)
		if err != nil {
			return fmt.Errorf("hydrate: field %q: %w", fieldCtx.Path, err)
		}

		dest := target.Field(i)
		if nested != nil {
			if err := fillNested(fieldCtx, dest, nested, skipUnset); err != nil {
				return err
			}
			continue
		}
		if !ok {
			if !skipUnset {
				dest.Set(reflect.Zero(dest.Type()))
			}
			continue
		}
		if err := assign(dest, value); err != nil {
			return fmt.Errorf("hydrate: field %q: %w", fieldCtx.Path, err)
		}
	}
	return nil
}

func fillNested(ctx Context, dest reflect.Value, src Source, skipUnset bool) error {
	switch dest.Kind() {
	case reflect.Struct:
		return fill(ctx, dest, src, skipUnset)
	case reflect.Pointer:
		if dest.Type().Elem().Kind() != reflect.Struct {
			break
		}
		if dest.IsNil() {
			dest.Set(reflect.New(dest.Type().Elem()))
		}
		return fill(ctx, dest.Elem(), src, skipUnset)
	}
	return fmt.Errorf("hydrate: field %q of type %s cannot hold a nested view", ctx.Path, dest.Type())
}

func assign(dest reflect.Value, value any) error {
	if value == nil {
		dest.Set(reflect.Zero(dest.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(dest.Type()):
		dest.Set(rv)
	case rv.Type().ConvertibleTo(dest.Type()):
		dest.Set(rv.Convert(dest.Type()))
	default:
		return fmt.Errorf("cannot assign %s to %s", rv.Type(), dest.Type())
	}
	return nil
}
