package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/magiconair/properties"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	props "github.com/goliatone/go-props"
	"github.com/goliatone/go-props/layering"
)

// parseProperties reads a Java style properties document. ${...} references
// are kept verbatim; the resolver expands them against the whole store.
func parseProperties(data []byte) (props.Properties, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}
	out := make(props.Properties, p.Len())
	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		out[key] = value
	}
	return out, nil
}

func parseYAML(data []byte) (props.Properties, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return props.Properties(layering.Flatten(doc)), nil
}

func parseTOML(data []byte) (props.Properties, error) {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	return props.Properties(layering.Flatten(doc)), nil
}

func parseJSON(data []byte) (props.Properties, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return props.Properties{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse json: invalid document")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("parse json: top level must be an object, got %s", root.Type)
	}
	out := props.Properties{}
	flattenJSON(out, "", root)
	return out, nil
}

func flattenJSON(out props.Properties, prefix string, value gjson.Result) {
	switch {
	case value.IsObject():
		value.ForEach(func(key, child gjson.Result) bool {
			flattenJSON(out, layering.JoinPath(prefix, key.String()), child)
			return true
		})
	case value.IsArray():
		items := value.Array()
		structured := false
		for _, item := range items {
			if item.IsObject() || item.IsArray() {
				structured = true
				break
			}
		}
		if structured {
			for i, item := range items {
				flattenJSON(out, layering.JoinPath(prefix, strconv.Itoa(i)), item)
			}
			return
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = item.String()
		}
		if prefix != "" {
			out[prefix] = strings.Join(parts, layering.ListSeparator)
		}
	default:
		if prefix != "" {
			out[prefix] = value.String()
		}
	}
}
