package props

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// DefaultSeparator splits sequence values when an accessor declares none.
const DefaultSeparator = ","

// Char is a single-character value. Conversion requires exactly one rune.
type Char rune

func (c Char) String() string {
	return string(rune(c))
}

// ConvertFunc turns a resolved string into a value of one specific type.
type ConvertFunc func(raw string) (any, error)

// ConversionRule converts strings for the types it matches.
type ConversionRule struct {
	Name    string
	Match   func(reflect.Type) bool
	Convert func(typ reflect.Type, raw string) (reflect.Value, error)
}

// ConverterRegistry converts resolved strings into declared types. Lookups are
// attempted in order: exact type rules, enumerations, custom rules,
// single-string constructible types (factories, then encoding.TextUnmarshaler),
// pointers, slices and arrays of convertible types split on a separator, then
// kind based fallbacks for numeric, boolean and string types.
type ConverterRegistry struct {
	mu        sync.RWMutex
	exact     map[reflect.Type]ConvertFunc
	enums     map[reflect.Type]map[string]reflect.Value
	factories map[reflect.Type]ConvertFunc
	rules     []ConversionRule
}

// ConverterOption registers an extension on a registry.
type ConverterOption func(*ConverterRegistry) error

// NewConverterRegistry constructs a registry with the builtin rules plus any
// supplied extensions. It panics when an extension fails to register; use
// Apply on an empty registry to handle the error instead.
func NewConverterRegistry(opts ...ConverterOption) *ConverterRegistry {
	r := &ConverterRegistry{
		exact:     builtinRules(),
		enums:     make(map[reflect.Type]map[string]reflect.Value),
		factories: make(map[reflect.Type]ConvertFunc),
	}
	if err := r.Apply(opts...); err != nil {
		panic(err)
	}
	return r
}

// Apply registers every option in order and returns the joined registration
// errors. Options that succeed stay registered.
func (r *ConverterRegistry) Apply(opts ...ConverterOption) error {
	var errs []error
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithConversion registers fn as the exact rule for typ.
func WithConversion(typ reflect.Type, fn ConvertFunc) ConverterOption {
	return func(r *ConverterRegistry) error {
		return r.RegisterConversion(typ, fn)
	}
}

// WithEnum registers the named values of an enumerated type T.
func WithEnum[T comparable](values map[string]T) ConverterOption {
	return func(r *ConverterRegistry) error {
		return RegisterEnum(r, values)
	}
}

// WithFactory registers a single-string constructor for T.
func WithFactory[T any](fn func(string) (T, error)) ConverterOption {
	return func(r *ConverterRegistry) error {
		return RegisterFactory(r, fn)
	}
}

// WithRule appends a custom rule consulted after exact and enum matches.
func WithRule(rule ConversionRule) ConverterOption {
	return func(r *ConverterRegistry) error {
		return r.RegisterRule(rule)
	}
}

// RegisterConversion stores fn as the exact rule for typ, replacing any
// existing rule for that type.
func (r *ConverterRegistry) RegisterConversion(typ reflect.Type, fn ConvertFunc) error {
	if typ == nil {
		return fmt.Errorf("props: conversion type must not be nil")
	}
	if fn == nil {
		return fmt.Errorf("props: conversion for %s is nil", typ)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exact == nil {
		r.exact = make(map[reflect.Type]ConvertFunc)
	}
	r.exact[typ] = fn
	return nil
}

// RegisterEnum stores the case-sensitive names of an enumerated type.
func RegisterEnum[T comparable](r *ConverterRegistry, values map[string]T) error {
	typ := reflect.TypeFor[T]()
	if len(values) == 0 {
		return fmt.Errorf("props: enum %s has no values", typ)
	}
	named := make(map[string]reflect.Value, len(values))
	for name, value := range values {
		if name == "" {
			return fmt.Errorf("props: enum %s has an empty name", typ)
		}
		named[name] = reflect.ValueOf(value)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enums == nil {
		r.enums = make(map[reflect.Type]map[string]reflect.Value)
	}
	if _, exists := r.enums[typ]; exists {
		return fmt.Errorf("props: enum %s already registered", typ)
	}
	r.enums[typ] = named
	return nil
}

// RegisterFactory stores fn as the single-string constructor for T.
func RegisterFactory[T any](r *ConverterRegistry, fn func(string) (T, error)) error {
	typ := reflect.TypeFor[T]()
	if fn == nil {
		return fmt.Errorf("props: factory for %s is nil", typ)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[reflect.Type]ConvertFunc)
	}
	if _, exists := r.factories[typ]; exists {
		return fmt.Errorf("props: factory for %s already registered", typ)
	}
	r.factories[typ] = func(raw string) (any, error) {
		return fn(raw)
	}
	return nil
}

// RegisterRule appends a custom rule.
func (r *ConverterRegistry) RegisterRule(rule ConversionRule) error {
	if rule.Match == nil || rule.Convert == nil {
		return fmt.Errorf("props: rule %q must define Match and Convert", rule.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule)
	return nil
}

// Clone returns a registry with the same rules that can be extended
// independently.
func (r *ConverterRegistry) Clone() *ConverterRegistry {
	if r == nil {
		return NewConverterRegistry()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &ConverterRegistry{
		exact:     make(map[reflect.Type]ConvertFunc, len(r.exact)),
		enums:     make(map[reflect.Type]map[string]reflect.Value, len(r.enums)),
		factories: make(map[reflect.Type]ConvertFunc, len(r.factories)),
		rules:     append([]ConversionRule(nil), r.rules...),
	}
	for typ, fn := range r.exact {
		clone.exact[typ] = fn
	}
	for typ, values := range r.enums {
		clone.enums[typ] = values
	}
	for typ, fn := range r.factories {
		clone.factories[typ] = fn
	}
	return clone
}

// EnumNames returns the registered names for typ, sorted.
func (r *ConverterRegistry) EnumNames(typ reflect.Type) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.enums[typ]))
	for name := range r.enums[typ] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Convert converts raw into typ, splitting sequences on DefaultSeparator.
func (r *ConverterRegistry) Convert(typ reflect.Type, raw string) (any, error) {
	return r.ConvertWithSeparator(typ, raw, DefaultSeparator)
}

// ConvertWithSeparator converts raw into typ, splitting sequences on sep.
func (r *ConverterRegistry) ConvertWithSeparator(typ reflect.Type, raw, sep string) (any, error) {
	value, err := r.convertValue(typ, raw, sep)
	if err != nil {
		return nil, err
	}
	return value.Interface(), nil
}

// ConvertTo converts raw into T using r.
func ConvertTo[T any](r *ConverterRegistry, raw string) (T, error) {
	var zero T
	value, err := r.convertValue(reflect.TypeFor[T](), raw, DefaultSeparator)
	if err != nil {
		return zero, err
	}
	return value.Interface().(T), nil
}

func (r *ConverterRegistry) convertValue(typ reflect.Type, raw, sep string) (reflect.Value, error) {
	if typ == nil {
		return reflect.Value{}, &ConversionError{Value: raw, Err: fmt.Errorf("no declared type")}
	}
	if sep == "" {
		sep = DefaultSeparator
	}

	r.mu.RLock()
	exact := r.exact[typ]
	enum := r.enums[typ]
	factory := r.factories[typ]
	rules := r.rules
	r.mu.RUnlock()

	if exact != nil {
		return wrapConverted(typ, raw, exact)
	}

	if enum != nil {
		value, ok := enum[raw]
		if !ok {
			return reflect.Value{}, &ConversionError{
				Value: raw,
				Type:  typ,
				Err:   fmt.Errorf("unknown name, expected one of %s", strings.Join(r.EnumNames(typ), ", ")),
			}
		}
		return value.Convert(typ), nil
	}

	for _, rule := range rules {
		if !rule.Match(typ) {
			continue
		}
		value, err := rule.Convert(typ, raw)
		if err != nil {
			return reflect.Value{}, asConversionError(typ, raw, err)
		}
		return value, nil
	}

	if factory != nil {
		return wrapConverted(typ, raw, factory)
	}

	if unmarshaler, ok := textUnmarshaler(typ); ok {
		if err := unmarshaler.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return reflect.Value{}, &ConversionError{Value: raw, Type: typ, Err: err}
		}
		if typ.Kind() == reflect.Pointer {
			return unmarshaler, nil
		}
		return unmarshaler.Elem(), nil
	}

	switch typ.Kind() {
	case reflect.Pointer:
		elem, err := r.convertValue(typ.Elem(), raw, sep)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(typ.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	case reflect.Slice:
		return r.convertSlice(typ, raw, sep)
	case reflect.Array:
		return r.convertArray(typ, raw, sep)
	}

	if fn := kindRule(typ.Kind()); fn != nil {
		converted, err := fn(typ, raw)
		if err != nil {
			return reflect.Value{}, &ConversionError{Value: raw, Type: typ, Err: err}
		}
		return converted, nil
	}

	return reflect.Value{}, &ConversionError{Value: raw, Type: typ, Err: fmt.Errorf("no applicable converter")}
}

func (r *ConverterRegistry) convertSlice(typ reflect.Type, raw, sep string) (reflect.Value, error) {
	parts := splitSequence(raw, sep)
	if len(parts) == 0 {
		return reflect.Zero(typ), nil
	}
	out := reflect.MakeSlice(typ, len(parts), len(parts))
	for i, part := range parts {
		elem, err := r.convertValue(typ.Elem(), part, sep)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(elem)
	}
	return out, nil
}

func (r *ConverterRegistry) convertArray(typ reflect.Type, raw, sep string) (reflect.Value, error) {
	parts := splitSequence(raw, sep)
	if len(parts) != typ.Len() {
		return reflect.Value{}, &ConversionError{
			Value: raw,
			Type:  typ,
			Err:   fmt.Errorf("expected %d element(s), got %d", typ.Len(), len(parts)),
		}
	}
	out := reflect.New(typ).Elem()
	for i, part := range parts {
		elem, err := r.convertValue(typ.Elem(), part, sep)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(elem)
	}
	return out, nil
}

func splitSequence(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func wrapConverted(typ reflect.Type, raw string, fn ConvertFunc) (reflect.Value, error) {
	converted, err := fn(raw)
	if err != nil {
		return reflect.Value{}, asConversionError(typ, raw, err)
	}
	value := reflect.ValueOf(converted)
	if !value.IsValid() {
		return reflect.Zero(typ), nil
	}
	if value.Type() != typ {
		if !value.Type().ConvertibleTo(typ) {
			return reflect.Value{}, &ConversionError{
				Value: raw,
				Type:  typ,
				Err:   fmt.Errorf("converter returned %s", value.Type()),
			}
		}
		value = value.Convert(typ)
	}
	return value, nil
}

func asConversionError(typ reflect.Type, raw string, err error) error {
	if convErr, ok := err.(*ConversionError); ok {
		return convErr
	}
	return &ConversionError{Value: raw, Type: typ, Err: err}
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// textUnmarshaler returns a fresh pointer for typ (or typ itself when it is a
// pointer) implementing encoding.TextUnmarshaler.
func textUnmarshaler(typ reflect.Type) (reflect.Value, bool) {
	if typ.Kind() == reflect.Pointer {
		if typ.Implements(textUnmarshalerType) {
			return reflect.New(typ.Elem()), true
		}
		return reflect.Value{}, false
	}
	if reflect.PointerTo(typ).Implements(textUnmarshalerType) {
		return reflect.New(typ), true
	}
	return reflect.Value{}, false
}
