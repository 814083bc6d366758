package props

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrConversion matches every *ConversionError.
	ErrConversion = errors.New("props: conversion failed")
	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("props: format failed")
	// ErrUnsupportedArguments matches every *UnsupportedArgumentsError.
	ErrUnsupportedArguments = errors.New("props: unsupported arguments")
	// ErrUnknownAccessor indicates the schema declares no accessor by that name.
	ErrUnknownAccessor = errors.New("props: unknown accessor")
	// ErrNotNested indicates a nested view was requested from a leaf accessor.
	ErrNotNested = errors.New("props: accessor is not nested")
	// ErrTypeMismatch indicates a typed getter asked for a type other than the
	// accessor's declared type.
	ErrTypeMismatch = errors.New("props: requested type does not match declaration")
)

// ConversionError reports a value that cannot be coerced to the declared type.
type ConversionError struct {
	Value string
	Type  reflect.Type
	Err   error
}

func (e *ConversionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("props: cannot convert %q to %s", e.Value, typeString(e.Type))
	}
	return fmt.Sprintf("props: cannot convert %q to %s: %v", e.Value, typeString(e.Type), e.Err)
}

func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrConversion) match.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// FormatError reports a mismatch between format verbs and call-time arguments.
type FormatError struct {
	Format string
	Args   []any
	Output string
}

func (e *FormatError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("props: format %q with %d argument(s) produced %q", e.Format, len(e.Args), e.Output)
}

// Is lets errors.Is(err, ErrFormat) match.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// UnsupportedArgumentsError reports call-time arguments of a nested accessor
// that cannot be interpreted as property layers.
type UnsupportedArgumentsError struct {
	Accessor string
	Args     []any
}

func (e *UnsupportedArgumentsError) Error() string {
	if e == nil {
		return "<nil>"
	}
	kinds := make([]string, len(e.Args))
	for i, arg := range e.Args {
		kinds[i] = fmt.Sprintf("%T", arg)
	}
	return fmt.Sprintf("props: unsupported args [%s] for nested accessor %q", strings.Join(kinds, ", "), e.Accessor)
}

// Is lets errors.Is(err, ErrUnsupportedArguments) match.
func (e *UnsupportedArgumentsError) Is(target error) bool {
	return target == ErrUnsupportedArguments
}

// UnknownFeatureError reports an unrecognised feature name in a declaration.
type UnknownFeatureError struct {
	Name string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("props: unknown feature %q", e.Name)
}

func typeString(typ reflect.Type) string {
	if typ == nil {
		return "<nil>"
	}
	return typ.String()
}
