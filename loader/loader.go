// Package loader reads property documents into store layers. Documents are
// flattened to dotted keys so a YAML, TOML or JSON tree and a Java style
// properties file produce interchangeable layers.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	props "github.com/goliatone/go-props"
)

// Loader produces one layer.
type Loader interface {
	Load() (props.Layer, error)
}

// Func adapts a function to Loader.
type Func func() (props.Layer, error)

// Load calls f.
func (f Func) Load() (props.Layer, error) {
	return f()
}

// Format identifies a document syntax.
type Format string

const (
	FormatProperties Format = "properties"
	FormatYAML       Format = "yaml"
	FormatTOML       Format = "toml"
	FormatJSON       Format = "json"
)

// FormatOf maps a file extension to a format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".properties", ".props":
		return FormatProperties, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
}

// Document loads a file or an in-memory buffer. Data takes precedence over
// Path; Path is still recorded in the layer metadata when both are set.
type Document struct {
	Path   string
	Data   []byte
	Format Format
	// Scope names the layer; defaults to props.ScopeFile.
	Scope string
	// SnapshotID overrides the generated layer identifier.
	SnapshotID string
}

// Load reads and parses the document.
func (d Document) Load() (props.Layer, error) {
	data := d.Data
	if data == nil {
		if d.Path == "" {
			return props.Layer{}, fmt.Errorf("document has neither path nor data")
		}
		read, err := os.ReadFile(d.Path)
		if err != nil {
			return props.Layer{}, fmt.Errorf("read config file: %w", err)
		}
		data = read
	}

	format := d.Format
	if format == "" {
		detected, err := FormatOf(d.Path)
		if err != nil {
			return props.Layer{}, err
		}
		format = detected
	}

	values, err := Parse(format, data)
	if err != nil {
		if d.Path != "" {
			return props.Layer{}, fmt.Errorf("%s: %w", d.Path, err)
		}
		return props.Layer{}, err
	}

	name := d.Scope
	if name == "" {
		name = props.ScopeFile
	}
	label := d.Path
	if label == "" {
		label = string(format) + " document"
	}
	metadata := map[string]any{"format": string(format)}
	if d.Path != "" {
		metadata["path"] = d.Path
	}
	var opts []props.LayerOption
	if d.SnapshotID != "" {
		opts = append(opts, props.WithSnapshotID(d.SnapshotID))
	}
	return props.NewLayer(
		props.NewScope(name, props.WithScopeLabel(label), props.WithScopeMetadata(metadata)),
		values,
		opts...,
	), nil
}

// Parse flattens data written in format.
func Parse(format Format, data []byte) (props.Properties, error) {
	switch format {
	case FormatProperties:
		return parseProperties(data)
	case FormatYAML:
		return parseYAML(data)
	case FormatTOML:
		return parseTOML(data)
	case FormatJSON:
		return parseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// FromFile loads path, picking the parser from its extension.
func FromFile(path string) (props.Layer, error) {
	return Document{Path: path}.Load()
}

// Files returns one loader per path, in the given order.
func Files(paths ...string) []Loader {
	loaders := make([]Loader, 0, len(paths))
	for _, path := range paths {
		loaders = append(loaders, Document{Path: path})
	}
	return loaders
}

// LoadAll runs loaders in order and returns their layers in the same order,
// strongest first. The first failure aborts.
func LoadAll(loaders ...Loader) ([]props.Layer, error) {
	layers := make([]props.Layer, 0, len(loaders))
	for i, l := range loaders {
		if l == nil {
			continue
		}
		layer, err := l.Load()
		if err != nil {
			return nil, fmt.Errorf("loader %d: %w", i, err)
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

// Store builds a store from loaders ordered strongest first.
func Store(loaders ...Loader) (*props.Store, error) {
	layers, err := LoadAll(loaders...)
	if err != nil {
		return nil, err
	}
	return props.NewStore(layers...), nil
}
