package props

import "fmt"

// ArgShape classifies the call-time arguments of a nested accessor.
type ArgShape int

const (
	// NoArgs derives a store equivalent to the parent's.
	NoArgs ArgShape = iota
	// SingleMappingList is one argument holding an ordered list of mappings.
	SingleMappingList
	// IndividualMappings is one or more mapping arguments, in order.
	IndividualMappings
	// InvalidArgs is anything that cannot be read as layers.
	InvalidArgs
)

func (s ArgShape) String() string {
	switch s {
	case NoArgs:
		return "no-args"
	case SingleMappingList:
		return "mapping-list"
	case IndividualMappings:
		return "mappings"
	default:
		return "invalid"
	}
}

// Imports is the classified form of nested accessor arguments. Layers is
// ordered strongest first and is empty unless Shape is SingleMappingList or
// IndividualMappings.
type Imports struct {
	Shape  ArgShape
	Layers []Layer
}

// ClassifyArgs interprets args as layers. Accepted mappings are Layer, any
// Source (including Properties), map[string]string and map[string]any; lists
// are slices of those. Nil arguments are invalid.
func ClassifyArgs(args []any) Imports {
	if len(args) == 0 {
		return Imports{Shape: NoArgs}
	}
	if len(args) == 1 {
		if layers, ok := mappingList(args[0]); ok {
			return Imports{Shape: SingleMappingList, Layers: layers}
		}
	}
	layers := make([]Layer, 0, len(args))
	for i, arg := range args {
		layer, ok := mappingLayer(i, arg)
		if !ok {
			return Imports{Shape: InvalidArgs}
		}
		layers = append(layers, layer)
	}
	return Imports{Shape: IndividualMappings, Layers: layers}
}

func mappingList(arg any) ([]Layer, bool) {
	var items []any
	switch typed := arg.(type) {
	case []Layer:
		return append([]Layer(nil), typed...), true
	case []Source:
		items = make([]any, len(typed))
		for i := range typed {
			items[i] = typed[i]
		}
	case []Properties:
		items = make([]any, len(typed))
		for i := range typed {
			items[i] = typed[i]
		}
	case []map[string]string:
		items = make([]any, len(typed))
		for i := range typed {
			items[i] = typed[i]
		}
	case []map[string]any:
		items = make([]any, len(typed))
		for i := range typed {
			items[i] = typed[i]
		}
	default:
		return nil, false
	}
	layers := make([]Layer, 0, len(items))
	for i, item := range items {
		layer, ok := mappingLayer(i, item)
		if !ok {
			return nil, false
		}
		layers = append(layers, layer)
	}
	return layers, true
}

func mappingLayer(index int, arg any) (Layer, bool) {
	switch typed := arg.(type) {
	case nil:
		return Layer{}, false
	case Layer:
		if typed.Source == nil {
			return Layer{}, false
		}
		return typed, true
	case *Store:
		if typed == nil {
			return Layer{}, false
		}
		return NewLayer(importScope(index), LookupSource(typed)), true
	case Source:
		if typed == nil {
			return Layer{}, false
		}
		return NewLayer(importScope(index), typed), true
	case map[string]string:
		if typed == nil {
			return Layer{}, false
		}
		return NewLayer(importScope(index), Properties(typed)), true
	case map[string]any:
		if typed == nil {
			return Layer{}, false
		}
		values := make(Properties, len(typed))
		for key, value := range typed {
			values[key] = fmt.Sprint(value)
		}
		return NewLayer(importScope(index), values), true
	default:
		return Layer{}, false
	}
}

// LookupSource exposes a whole store as a single Source, so another store can
// import it as one layer.
func LookupSource(store *Store) Source {
	return LiveSource(store.Get, store.Keys)
}
