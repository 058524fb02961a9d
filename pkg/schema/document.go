package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/arborworks/arbor/pkg/domain"
)

// Document is the declarative form of a workflow definition: a named, ordered
// list of node descriptors plus an optional type schema for run parameters.
//
// Documents are plain data. Structural and data-flow soundness is checked by
// the validator when a document is compiled into an executable definition; a
// document that fails validation is never executed.
type Document struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	// Params optionally types the run parameters (entry init params).
	// Values are type strings understood by ParseType: "string", "int", ...
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`

	Nodes []domain.NodeSpec `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
}

// ParseDocument decodes a YAML workflow document.
// YAML is decoded into loose maps first and then mapped onto the typed structs,
// so unknown keys are reported instead of silently dropped.
func ParseDocument(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid document structure: %w", err)
	}

	if doc.Name == "" {
		return nil, fmt.Errorf("document has no name")
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("document %q declares no nodes", doc.Name)
	}
	return &doc, nil
}

// Marshal serializes the document back to YAML.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// ParamSchema compiles the declared parameter types into a Schema.
// An empty Params map yields an empty schema (no type checking).
func (d *Document) ParamSchema() (Schema, error) {
	if len(d.Params) == 0 {
		return Schema{}, nil
	}
	s, err := ParseTypeMap(d.Params)
	if err != nil {
		return nil, fmt.Errorf("document %q: %w", d.Name, err)
	}
	return s, nil
}

// Node returns the spec with the given id, or nil.
func (d *Document) Node(id string) *domain.NodeSpec {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// Entry returns the entry-category spec, or nil when the document has none.
// Uniqueness is the validator's concern; this returns the first match.
func (d *Document) Entry() *domain.NodeSpec {
	for i := range d.Nodes {
		if d.Nodes[i].Category == domain.CategoryEntry {
			return &d.Nodes[i]
		}
	}
	return nil
}
