package domain

// Category defines when a node runs and where its output lands.
type Category string

const (
	// CategoryEntry seeds the run: the unique node with no predecessors.
	CategoryEntry Category = "entry"
	// CategoryMiddle is an intermediate stage reading/writing the cache namespace.
	CategoryMiddle Category = "middle"
	// CategoryExit terminates the main chain and publishes to the output namespace.
	CategoryExit Category = "exit"
	// CategoryAfter runs after the caller already received the output. Invisible to the caller.
	CategoryAfter Category = "after"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryEntry, CategoryMiddle, CategoryExit, CategoryAfter:
		return true
	}
	return false
}

// NodeSpec is the declarative descriptor of one node in a workflow definition.
// It declares the full data-flow contract of the node: which fields it consumes
// and from where, and which fields it promises to produce.
type NodeSpec struct {
	ID       string   `json:"id" yaml:"id" mapstructure:"id"`
	Type     string   `json:"type" yaml:"type" mapstructure:"type"`
	Category Category `json:"category" yaml:"category" mapstructure:"category"`

	// Successors lists the ids executed after this node, in order.
	Successors []string `json:"successors,omitempty" yaml:"successors,omitempty" mapstructure:"successors"`

	// InitParams are copied from the run parameters (the input namespace).
	// A missing param degrades to a warning, never a failure.
	InitParams []string `json:"init_params,omitempty" yaml:"init_params,omitempty" mapstructure:"init_params"`

	// InputFields are read from the cache namespace, i.e. they must have been
	// produced by an upstream node. The validator enforces this statically.
	InputFields []string `json:"input_fields,omitempty" yaml:"input_fields,omitempty" mapstructure:"input_fields"`

	// OutputFields are the only fields published from the call result. Anything
	// else the call returns is dropped.
	OutputFields []string `json:"output_fields,omitempty" yaml:"output_fields,omitempty" mapstructure:"output_fields"`

	// InputMapping renames a cache field (key) to a resolved-input key (value).
	// Fields absent from the mapping keep their own name.
	InputMapping map[string]string `json:"input_mapping,omitempty" yaml:"input_mapping,omitempty" mapstructure:"input_mapping"`
}

// MappedName returns the resolved-input key for a cache field.
func (n *NodeSpec) MappedName(field string) string {
	if dest, ok := n.InputMapping[field]; ok && dest != "" {
		return dest
	}
	return field
}

// Produces reports whether the node declares field as an output.
func (n *NodeSpec) Produces(field string) bool {
	for _, f := range n.OutputFields {
		if f == field {
			return true
		}
	}
	return false
}
