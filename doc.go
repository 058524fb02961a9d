/*
Package arbor is a declarative pipeline engine for conversational AI
processing chains: prompt assembly, enrichment, model invocation, and
post-processing, described as a validated graph of nodes.

It separates the pipeline shape (a YAML or code-built document), the data
flowing through one execution (a three-namespace execution context), and the
side effects (tools dispatched through an explicit registry). The engine
compiles a document into a definition, proves it sound before anything runs,
and then executes the main chain fail-fast, detaching bookkeeping nodes into
a background phase the caller can await.

# Concept

A workflow names its nodes, their category (entry, middle, exit, after),
their successors, and the fields each one reads and writes. Validation
rejects any graph where a node could observe a field no path has produced,
so a definition that compiles cannot fail on missing data at run time. This
hexagonal layout keeps the core independent of its surfaces: the same engine
backs the CLI, the HTTP server, and the MCP server.

# Usage

Initialize the engine with a definitions directory (or inject a loader) and
execute by name:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/arborworks/arbor"
	)

	func main() {
		eng, err := arbor.New("./pipelines")
		if err != nil {
			log.Fatal(err)
		}

		run, err := eng.Execute(context.Background(), "chat-turn",
			map[string]any{"user_input": "hello"},
			arbor.RunConfig{ExecuteAfterNodes: true},
		)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println(run.Output())

		// Block until detached bookkeeping nodes settle.
		run.Wait()
	}

Tool-backed nodes resolve through a registry the host wires up explicitly;
see the registry package. Pipelines can also be built in code with the dsl
package and compiled via Engine.Compile.
*/
package arbor
