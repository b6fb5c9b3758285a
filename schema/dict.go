package schema

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"

	apperrors "github.com/kbukum/flowkit/errors"
)

// Triple is the (name, kind, metadata) form of a field.
type Triple struct {
	Name string
	Kind Kind
	Meta Metadata
}

// FromTriples builds a schema from an ordered sequence of triples.
func FromTriples(triples ...Triple) (*Schema, error) {
	fields := make([]Field, 0, len(triples))
	for _, t := range triples {
		kind, err := ParseKind(string(t.Kind))
		if err != nil {
			return nil, apperrors.Configuration(err.Error()).WithDetail("field", t.Name)
		}
		meta := t.Meta.Clone()
		meta[MetaType] = string(kind)
		fields = append(fields, Field{Name: t.Name, Meta: meta})
	}
	return New(fields...)
}

// FromDict builds a schema from the dict form. Go maps carry no order, so
// fields are sorted by name; use FromYAML to keep declaration order.
func FromDict(dict map[string]Metadata) (*Schema, error) {
	names := make([]string, 0, len(dict))
	for name := range dict {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		f, err := fieldFromMeta(name, dict[name])
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return New(fields...)
}

// FromYAML parses the dict form, keeping declaration order. A bare scalar is
// shorthand for the kind: "id: integer".
func FromYAML(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Spec exports the dict form.
func (s *Schema) Spec() map[string]Metadata {
	spec := make(map[string]Metadata, s.Len())
	for _, f := range s.Fields() {
		spec[f.Name] = f.Meta
	}
	return spec
}

// Triples exports the schema as triples.
func (s *Schema) Triples() []Triple {
	out := make([]Triple, 0, s.Len())
	for _, f := range s.Fields() {
		meta := f.Meta.Clone()
		delete(meta, MetaType)
		out = append(out, Triple{Name: f.Name, Kind: f.Kind(), Meta: meta})
	}
	return out
}

func fieldFromMeta(name string, meta Metadata) (Field, error) {
	kind, err := ParseKind(fmt.Sprint(meta[MetaType]))
	if err != nil {
		return Field{}, apperrors.Configuration(fmt.Sprintf("field %q: %v", name, err)).WithDetail("field", name)
	}
	meta = meta.Clone()
	meta[MetaType] = string(kind)
	return Field{Name: name, Meta: meta}, nil
}

// MarshalYAML writes the dict form in field order.
func (s *Schema) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range s.Fields() {
		var value yaml.Node
		if err := value.Encode(map[string]any(f.Meta)); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Name},
			&value,
		)
	}
	return node, nil
}

// UnmarshalYAML reads the dict form in document order.
func (s *Schema) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("schema: expected a mapping, got yaml kind %d", value.Kind)
	}
	fields := make([]Field, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		name := value.Content[i].Value
		body := value.Content[i+1]

		meta := Metadata{}
		if body.Kind == yaml.ScalarNode {
			meta[MetaType] = body.Value
		} else if err := body.Decode(&meta); err != nil {
			return fmt.Errorf("schema: field %q: %w", name, err)
		}

		f, err := fieldFromMeta(name, meta)
		if err != nil {
			return err
		}
		fields = append(fields, f)
	}

	built, err := New(fields...)
	if err != nil {
		return err
	}
	*s = *built
	return nil
}

type jsonField struct {
	Name string   `json:"name"`
	Meta Metadata `json:"meta"`
}

// MarshalJSON writes the schema as an ordered list of fields.
func (s *Schema) MarshalJSON() ([]byte, error) {
	out := make([]jsonField, 0, s.Len())
	for _, f := range s.Fields() {
		out = append(out, jsonField{Name: f.Name, Meta: f.Meta})
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the ordered list written by MarshalJSON.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var in []jsonField
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	fields := make([]Field, 0, len(in))
	for _, jf := range in {
		f, err := fieldFromMeta(jf.Name, jf.Meta)
		if err != nil {
			return err
		}
		fields = append(fields, f)
	}
	built, err := New(fields...)
	if err != nil {
		return err
	}
	*s = *built
	return nil
}
