package props

import "strings"

// Feature is a per-accessor toggle consulted while resolving a value. Features
// are enabled by default; accessors record the ones they disable.
type Feature uint8

const (
	// FeatureVariableExpansion expands ${key} references in resolved values.
	FeatureVariableExpansion Feature = 1 << iota
	// FeatureParameterFormatting applies call-time arguments as Sprintf operands.
	FeatureParameterFormatting
)

func (f Feature) String() string {
	switch f {
	case FeatureVariableExpansion:
		return "expansion"
	case FeatureParameterFormatting:
		return "formatting"
	case 0:
		return "none"
	}
	var names []string
	for _, single := range []Feature{FeatureVariableExpansion, FeatureParameterFormatting} {
		if f&single != 0 {
			names = append(names, single.String())
		}
	}
	return strings.Join(names, ",")
}

// Has reports whether every feature in other is set on f.
func (f Feature) Has(other Feature) bool {
	return other != 0 && f&other == other
}

// ParseFeature converts a tag value into a Feature. Returns false for
// unrecognised names.
func ParseFeature(value string) (Feature, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "expansion", "variable_expansion", "variable-expansion":
		return FeatureVariableExpansion, true
	case "formatting", "parameter_formatting", "parameter-formatting":
		return FeatureParameterFormatting, true
	default:
		return 0, false
	}
}

// ParseFeatures parses a comma separated feature list.
func ParseFeatures(value string) (Feature, error) {
	var out Feature
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		feature, ok := ParseFeature(part)
		if !ok {
			return 0, &UnknownFeatureError{Name: strings.TrimSpace(part)}
		}
		out |= feature
	}
	return out, nil
}
