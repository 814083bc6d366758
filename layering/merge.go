// Package layering flattens structured documents into dotted property maps and
// composes property maps ordered from strongest to weakest.
package layering

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ListSeparator joins scalar sequence elements when a document list is
// flattened into a single property value.
const ListSeparator = ","

// Merge composes maps ordered from strongest to weakest, returning a new map
// where the first map defining a key wins.
func Merge(layers ...map[string]string) map[string]string {
	size := 0
	for _, layer := range layers {
		size += len(layer)
	}
	merged := make(map[string]string, size)
	for i := len(layers) - 1; i >= 0; i-- {
		for key, value := range layers[i] {
			merged[key] = value
		}
	}
	return merged
}

// Clone returns a detached copy of values. A nil input yields an empty map so
// callers can treat the result as a valid, immutable layer.
func Clone(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}

// SortedKeys returns the keys of values in lexical order.
func SortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Flatten converts a nested document (as produced by YAML/TOML decoders) into
// dotted keys. Lists of scalars are joined with ListSeparator, lists holding
// maps are indexed ("servers.0.host").
func Flatten(doc map[string]any) map[string]string {
	out := map[string]string{}
	flattenInto(out, "", doc)
	return out
}

func flattenInto(out map[string]string, prefix string, value any) {
	switch typed := value.(type) {
	case map[string]any:
		for key, child := range typed {
			flattenInto(out, JoinPath(prefix, key), child)
		}
	case map[any]any:
		for key, child := range typed {
			flattenInto(out, JoinPath(prefix, fmt.Sprint(key)), child)
		}
	case []map[string]any:
		for i, child := range typed {
			flattenInto(out, JoinPath(prefix, strconv.Itoa(i)), child)
		}
	case []any:
		if prefix == "" {
			return
		}
		if !containsStructured(typed) {
			parts := make([]string, 0, len(typed))
			for _, item := range typed {
				parts = append(parts, Scalar(item))
			}
			out[prefix] = strings.Join(parts, ListSeparator)
			return
		}
		for i, child := range typed {
			flattenInto(out, JoinPath(prefix, strconv.Itoa(i)), child)
		}
	default:
		if prefix == "" {
			return
		}
		out[prefix] = Scalar(typed)
	}
}

func containsStructured(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case map[string]any, map[any]any, []any, []map[string]any:
			return true
		}
	}
	return false
}

// Scalar renders a decoded document scalar the way it would be written in a
// properties file.
func Scalar(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case time.Time:
		return typed.Format(time.RFC3339)
	default:
		return fmt.Sprint(typed)
	}
}

// JoinPath appends segment to prefix using dot notation.
func JoinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
