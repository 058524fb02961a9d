package dsl

import (
	"fmt"

	"github.com/arborworks/arbor/pkg/adapters/memory"
	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/schema"
)

// Builder manages the document construction. Node declaration order is
// preserved: it decides after-phase ordering and topological tie-breaks.
type Builder struct {
	name        string
	description string
	params      map[string]string
	nodes       map[string]*NodeBuilder
	order       []string
}

// New creates a new document builder for a named workflow.
func New(name string) *Builder {
	return &Builder{
		name:   name,
		params: make(map[string]string),
		nodes:  make(map[string]*NodeBuilder),
	}
}

// Describe sets the human-readable description.
func (b *Builder) Describe(description string) *Builder {
	b.description = description
	return b
}

// Param declares a run parameter with its type expression (e.g. "string",
// "int", "[string]", "any").
func (b *Builder) Param(name, typeExpr string) *Builder {
	b.params[name] = typeExpr
	return b
}

// Entry adds the entry node. The optional second argument overrides the node
// type, which defaults to the id.
func (b *Builder) Entry(id string, nodeType ...string) *NodeBuilder {
	return b.add(id, domain.CategoryEntry, nodeType...)
}

// Middle adds an intermediate node.
func (b *Builder) Middle(id string, nodeType ...string) *NodeBuilder {
	return b.add(id, domain.CategoryMiddle, nodeType...)
}

// Exit adds the exit node.
func (b *Builder) Exit(id string, nodeType ...string) *NodeBuilder {
	return b.add(id, domain.CategoryExit, nodeType...)
}

// After adds a background node executed once the caller already has the
// output.
func (b *Builder) After(id string, nodeType ...string) *NodeBuilder {
	return b.add(id, domain.CategoryAfter, nodeType...)
}

// add creates a new node, or returns the existing builder for the id.
func (b *Builder) add(id string, category domain.Category, nodeType ...string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}

	typeName := id
	if len(nodeType) > 0 && nodeType[0] != "" {
		typeName = nodeType[0]
	}

	nb := &NodeBuilder{
		spec: domain.NodeSpec{
			ID:       id,
			Type:     typeName,
			Category: category,
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Document compiles the builder into a schema document.
func (b *Builder) Document() (*schema.Document, error) {
	if b.name == "" {
		return nil, fmt.Errorf("document missing name")
	}
	if len(b.order) == 0 {
		return nil, fmt.Errorf("document %q has no nodes", b.name)
	}

	nodes := make([]domain.NodeSpec, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].spec)
	}

	params := b.params
	if len(params) == 0 {
		params = nil
	}

	return &schema.Document{
		Name:        b.name,
		Description: b.description,
		Params:      params,
		Nodes:       nodes,
	}, nil
}

// Loader compiles the document and wraps it in an in-memory loader, ready to
// be injected via arbor.WithLoader.
func (b *Builder) Loader() (*memory.Loader, error) {
	doc, err := b.Document()
	if err != nil {
		return nil, err
	}

	loader, err := memory.NewFromDocuments(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
