package props

import (
	"encoding/json"
)

// Trace captures provenance information for a key across the layers of a
// store, strongest first.
type Trace struct {
	Key    string       `json:"key"`
	Value  string       `json:"value,omitempty"`
	Found  bool         `json:"found"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how a specific layer contributed to a traced key.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Value      string `json:"value,omitempty"`
	Found      bool   `json:"found"`
	Effective  bool   `json:"effective"`
}

// Trace reports which layers define key and which one wins.
func (s *Store) Trace(key string) Trace {
	trace := Trace{Key: key, Layers: []Provenance{}}
	if s == nil {
		return trace
	}
	for _, layer := range s.layers {
		value, ok := layer.Source.Lookup(key)
		entry := Provenance{
			Scope:      layer.Scope.clone(),
			SnapshotID: layer.SnapshotID,
			Value:      value,
			Found:      ok,
		}
		if ok && !trace.Found {
			entry.Effective = true
			trace.Found = true
			trace.Value = value
		}
		trace.Layers = append(trace.Layers, entry)
	}
	return trace
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
