package props

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

func builtinRules() map[reflect.Type]ConvertFunc {
	rules := map[reflect.Type]ConvertFunc{
		reflect.TypeFor[Char](): func(raw string) (any, error) {
			if utf8.RuneCountInString(raw) != 1 {
				return nil, fmt.Errorf("expected a single character, got %d", utf8.RuneCountInString(raw))
			}
			r, _ := utf8.DecodeRuneInString(raw)
			return Char(r), nil
		},
		reflect.TypeFor[time.Duration](): func(raw string) (any, error) {
			return time.ParseDuration(strings.TrimSpace(raw))
		},
		reflect.TypeFor[*url.URL](): func(raw string) (any, error) {
			return parseURL(raw)
		},
		reflect.TypeFor[url.URL](): func(raw string) (any, error) {
			u, err := parseURL(raw)
			if err != nil {
				return nil, err
			}
			return *u, nil
		},
		reflect.TypeFor[*regexp.Regexp](): func(raw string) (any, error) {
			return regexp.Compile(raw)
		},
		reflect.TypeFor[[]byte](): func(raw string) (any, error) {
			return []byte(raw), nil
		},
	}

	basics := []reflect.Type{
		reflect.TypeFor[string](),
		reflect.TypeFor[bool](),
		reflect.TypeFor[int](),
		reflect.TypeFor[int8](),
		reflect.TypeFor[int16](),
		reflect.TypeFor[int32](),
		reflect.TypeFor[int64](),
		reflect.TypeFor[uint](),
		reflect.TypeFor[uint8](),
		reflect.TypeFor[uint16](),
		reflect.TypeFor[uint32](),
		reflect.TypeFor[uint64](),
		reflect.TypeFor[float32](),
		reflect.TypeFor[float64](),
	}
	for _, typ := range basics {
		typ := typ
		fn := kindRule(typ.Kind())
		rules[typ] = func(raw string) (any, error) {
			value, err := fn(typ, raw)
			if err != nil {
				return nil, err
			}
			return value.Interface(), nil
		}
	}
	return rules
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("no protocol")
	}
	return u, nil
}

type kindConverter func(typ reflect.Type, raw string) (reflect.Value, error)

// kindRule returns the primitive parser for kind, or nil when kind has none.
// The result is converted to typ so named types (type Port int) share it.
func kindRule(kind reflect.Kind) kindConverter {
	switch kind {
	case reflect.String:
		return func(typ reflect.Type, raw string) (reflect.Value, error) {
			return reflect.ValueOf(raw).Convert(typ), nil
		}
	case reflect.Bool:
		return func(typ reflect.Type, raw string) (reflect.Value, error) {
			switch strings.ToLower(strings.TrimSpace(raw)) {
			case "true":
				return reflect.ValueOf(true).Convert(typ), nil
			case "false":
				return reflect.ValueOf(false).Convert(typ), nil
			default:
				return reflect.Value{}, fmt.Errorf("expected true or false")
			}
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(typ reflect.Type, raw string) (reflect.Value, error) {
			parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, typ.Bits())
			if err != nil {
				return reflect.Value{}, unwrapNumError(err)
			}
			return reflect.ValueOf(parsed).Convert(typ), nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(typ reflect.Type, raw string) (reflect.Value, error) {
			parsed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, typ.Bits())
			if err != nil {
				return reflect.Value{}, unwrapNumError(err)
			}
			return reflect.ValueOf(parsed).Convert(typ), nil
		}
	case reflect.Float32, reflect.Float64:
		return func(typ reflect.Type, raw string) (reflect.Value, error) {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), typ.Bits())
			if err != nil {
				return reflect.Value{}, unwrapNumError(err)
			}
			return reflect.ValueOf(parsed).Convert(typ), nil
		}
	default:
		return nil
	}
}

func unwrapNumError(err error) error {
	if numErr, ok := err.(*strconv.NumError); ok {
		return numErr.Err
	}
	return err
}
