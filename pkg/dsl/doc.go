/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically
constructing arbor workflow documents.

It allows developers to define processing chains using a type-safe, fluent
builder pattern instead of relying on external YAML files. This is
particularly useful for dynamic pipeline generation, unit testing, and
leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"github.com/arborworks/arbor/pkg/dsl"
	)

	func main() {
		b := dsl.New("chat-turn").
			Describe("One conversational turn").
			Param("user_input", "string")

		b.Entry("seed").
			InitParams("user_input").
			Outputs("user_input").
			To("respond")

		b.Exit("respond", "llm").
			Inputs("user_input").
			MapInput("user_input", "prompt").
			Outputs("reply")

		doc, err := b.Document()
		// ... compile doc via arbor.Engine.Compile, or wrap it:
		loader, err2 := b.Loader()
		_, _, _ = doc, err, err2
		_ = loader
	}
*/
package dsl
