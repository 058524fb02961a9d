// Package schema defines the declarative document shape of arbor workflow
// definitions and a small type system for run-parameter validation.
//
// A Document is a named list of node descriptors (see domain.NodeSpec) plus an
// optional parameter schema. Documents are parsed from YAML:
//
//	name: chat-turn
//	params:
//	  user_input: string
//	nodes:
//	  - id: assemble
//	    type: prompt
//	    category: entry
//	    successors: [generate]
//	    init_params: [user_input]
//	    output_fields: [prompt]
//
// Parameter schemas map names to type strings ("string", "int", "float",
// "bool", "any", "[string]", ...) and validate caller-supplied run parameters
// before a run starts:
//
//	s, _ := schema.ParseTypeMap(map[string]string{"user_input": "string"})
//	if err := schema.Validate(s, params); err != nil {
//	    // handle validation errors
//	}
//
// This package carries no engine logic; soundness of the node graph itself is
// the validator's job.
package schema
