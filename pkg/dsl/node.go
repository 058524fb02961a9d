package dsl

import "github.com/arborworks/arbor/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	spec    domain.NodeSpec
	builder *Builder
}

// Type overrides the node type used for behavior and registry dispatch.
func (n *NodeBuilder) Type(typeName string) *NodeBuilder {
	n.spec.Type = typeName
	return n
}

// InitParams copies the named run parameters into the node's input.
func (n *NodeBuilder) InitParams(params ...string) *NodeBuilder {
	n.spec.InitParams = append(n.spec.InitParams, params...)
	return n
}

// Inputs declares the cache fields the node consumes.
func (n *NodeBuilder) Inputs(fields ...string) *NodeBuilder {
	n.spec.InputFields = append(n.spec.InputFields, fields...)
	return n
}

// Outputs declares the fields the node publishes.
func (n *NodeBuilder) Outputs(fields ...string) *NodeBuilder {
	n.spec.OutputFields = append(n.spec.OutputFields, fields...)
	return n
}

// MapInput renames a consumed field before the call sees it.
func (n *NodeBuilder) MapInput(field, as string) *NodeBuilder {
	if n.spec.InputMapping == nil {
		n.spec.InputMapping = make(map[string]string)
	}
	n.spec.InputMapping[field] = as
	return n
}

// To appends successors executed after this node.
func (n *NodeBuilder) To(targets ...string) *NodeBuilder {
	n.spec.Successors = append(n.spec.Successors, targets...)
	return n
}

// Spec returns the underlying node spec.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Spec() domain.NodeSpec {
	return n.spec
}
