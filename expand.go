package props

import "strings"

// Lookup resolves a property key. *Store satisfies it.
type Lookup interface {
	Get(key string) (string, bool)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(key string) (string, bool)

// Get implements Lookup.
func (f LookupFunc) Get(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	return f(key)
}

// Expand replaces each ${name} reference in raw with the value lookup returns
// for name. Substituted values are not expanded again, so self-referential
// definitions cannot loop. Unknown names and malformed references (an
// unterminated "${" or a name with unsupported characters) are left as-is.
func Expand(raw string, lookup Lookup) string {
	if lookup == nil || !strings.Contains(raw, "${") {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))
	i := 0
	for i < len(raw) {
		start := strings.Index(raw[i:], "${")
		if start < 0 {
			b.WriteString(raw[i:])
			break
		}
		start += i
		b.WriteString(raw[i:start])

		end := start + 2
		for end < len(raw) && isVariableChar(raw[end]) {
			end++
		}
		if end == start+2 || end >= len(raw) || raw[end] != '}' {
			// Not a reference: emit the "$" and rescan from the brace so a
			// well-formed reference later in the string is still expanded.
			b.WriteByte('$')
			i = start + 1
			continue
		}

		name := raw[start+2 : end]
		if value, ok := lookup.Get(name); ok {
			b.WriteString(value)
		} else {
			b.WriteString(raw[start : end+1])
		}
		i = end + 1
	}
	return b.String()
}

func isVariableChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.', c == '-', c == '_', c == ':', c == '/':
		return true
	default:
		return false
	}
}
