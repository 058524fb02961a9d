/*
Package domain contains the core domain models for the arbor engine.

It defines the declarative shape of a workflow (NodeSpec, Category), the per-run
state container (ExecutionContext) and the records a run produces
(ExecutionResult, RunRecord). This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - NodeSpec: the data-flow contract of one node (consumed fields, produced
    fields, successors, execution category).
  - ExecutionContext: the per-run store partitioned into input/cache/output
    namespaces.
  - ExecutionResult: the immutable record of a single node execution.
  - LifecycleHooks: observability callbacks the engine fires during a run.
*/
package domain
