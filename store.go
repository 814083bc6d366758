package props

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-props/layering"
)

// Source exposes the string properties of a single layer.
type Source interface {
	Lookup(key string) (string, bool)
	Keys() []string
}

// Properties is an in-memory Source. Layers built with NewLayer hold a detached
// copy, so a Properties layer never changes after construction.
type Properties map[string]string

// Lookup implements Source.
func (p Properties) Lookup(key string) (string, bool) {
	value, ok := p[key]
	return value, ok
}

// Keys implements Source and returns keys in lexical order.
func (p Properties) Keys() []string {
	return layering.SortedKeys(p)
}

type liveSource struct {
	lookup func(string) (string, bool)
	keys   func() []string
}

// LiveSource adapts lookup functions into a Source that observes whatever the
// provider returns at lookup time. keys may be nil when enumeration is not
// supported; such a layer is skipped by Keys, Flatten and List.
func LiveSource(lookup func(key string) (string, bool), keys func() []string) Source {
	return liveSource{lookup: lookup, keys: keys}
}

func (s liveSource) Lookup(key string) (string, bool) {
	if s.lookup == nil {
		return "", false
	}
	return s.lookup(key)
}

func (s liveSource) Keys() []string {
	if s.keys == nil {
		return nil
	}
	return s.keys()
}

// EnvironmentSource exposes the process environment as a live Source.
func EnvironmentSource() Source {
	return LiveSource(os.LookupEnv, func() []string {
		env := os.Environ()
		keys := make([]string, 0, len(env))
		for _, entry := range env {
			if name, _, ok := strings.Cut(entry, "="); ok && name != "" {
				keys = append(keys, name)
			}
		}
		sort.Strings(keys)
		return keys
	})
}

// Scope names a layer for tracing and logging. Precedence is positional: the
// scope itself carries no ordering.
type Scope struct {
	Name     string
	Label    string
	Metadata map[string]any
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	label    string
	metadata map[string]any
}

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.label = label
	}
}

// WithScopeMetadata attaches arbitrary metadata to the scope. The map is copied
// so the resulting Scope remains immutable even if the caller mutates their
// reference.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(cfg *scopeConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope with the supplied configuration.
func NewScope(name string, opts ...ScopeOption) Scope {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return Scope{
		Name:     name,
		Label:    cfg.label,
		Metadata: copyMetadata(cfg.metadata),
	}
}

func (s Scope) clone() Scope {
	return Scope{
		Name:     s.Name,
		Label:    s.Label,
		Metadata: copyMetadata(s.Metadata),
	}
}

// Layer pairs a scope with the source consulted for that scope.
type Layer struct {
	Scope      Scope
	Source     Source
	SnapshotID string
}

// LayerOption configures optional metadata for a layer.
type LayerOption func(*Layer)

// WithSnapshotID overrides the generated snapshot identifier.
func WithSnapshotID(id string) LayerOption {
	return func(layer *Layer) {
		layer.SnapshotID = id
	}
}

// NewLayer constructs a Layer. Properties sources are copied; other sources
// are kept as-is so live providers stay live. A random snapshot identifier is
// assigned unless WithSnapshotID is supplied.
func NewLayer(scope Scope, source Source, opts ...LayerOption) Layer {
	if props, ok := source.(Properties); ok {
		source = Properties(layering.Clone(props))
	}
	layer := Layer{
		Scope:  scope.clone(),
		Source: source,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&layer)
	}
	if layer.SnapshotID == "" {
		layer.SnapshotID = uuid.NewString()
	}
	return layer
}

// PropertiesLayer is shorthand for NewLayer(NewScope(name), Properties(values)).
func PropertiesLayer(name string, values map[string]string, opts ...LayerOption) Layer {
	return NewLayer(NewScope(name), Properties(values), opts...)
}

// Store is an immutable, ordered collection of layers. Index 0 has the highest
// precedence and lookups return the first layer defining a key.
type Store struct {
	layers []Layer
}

// NewStore builds a store from layers ordered strongest first. Layers without
// a source are dropped.
func NewStore(layers ...Layer) *Store {
	copied := make([]Layer, 0, len(layers))
	for _, layer := range layers {
		if layer.Source == nil {
			continue
		}
		copied = append(copied, cloneLayer(layer))
	}
	return &Store{layers: copied}
}

// Get returns the value from the strongest layer defining key.
func (s *Store) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, layer := range s.layers {
		if value, ok := layer.Source.Lookup(key); ok {
			return value, true
		}
	}
	return "", false
}

// Derive returns a new store consulting layers before the receiver's own
// layers. Among themselves, layers keep the given order. The receiver is left
// untouched; Derive with no layers is equivalent to the receiver.
func (s *Store) Derive(layers ...Layer) *Store {
	combined := make([]Layer, 0, len(layers)+s.Len())
	combined = append(combined, layers...)
	if s != nil {
		combined = append(combined, s.layers...)
	}
	return NewStore(combined...)
}

// Layers returns a defensive copy of the underlying layers.
func (s *Store) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = cloneLayer(s.layers[i])
	}
	return out
}

// Len returns the number of layers in the store.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Keys returns every key defined by any enumerable layer, sorted.
func (s *Store) Keys() []string {
	return layering.SortedKeys(s.Flatten())
}

// Flatten resolves every enumerable key to its effective (unexpanded) value.
func (s *Store) Flatten() map[string]string {
	if s == nil {
		return map[string]string{}
	}
	snapshots := make([]map[string]string, 0, len(s.layers))
	for _, layer := range s.layers {
		keys := layer.Source.Keys()
		snapshot := make(map[string]string, len(keys))
		for _, key := range keys {
			if value, ok := layer.Source.Lookup(key); ok {
				snapshot[key] = value
			}
		}
		snapshots = append(snapshots, snapshot)
	}
	return layering.Merge(snapshots...)
}

// List writes the effective properties to w as sorted key=value lines.
func (s *Store) List(w io.Writer) error {
	if w == nil {
		return fmt.Errorf("props: list writer is nil")
	}
	flat := s.Flatten()
	for _, key := range layering.SortedKeys(flat) {
		if _, err := fmt.Fprintf(w, "%s=%s\n", key, flat[key]); err != nil {
			return fmt.Errorf("props: list %q: %w", key, err)
		}
	}
	return nil
}

func cloneLayer(layer Layer) Layer {
	return Layer{
		Scope:      layer.Scope.clone(),
		Source:     layer.Source,
		SnapshotID: layer.SnapshotID,
	}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
