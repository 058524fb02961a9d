/*
Package ports defines the driven ports (interfaces) for the arbor engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various definition sources, run-record
backends and coordination mechanisms.

# Key Interfaces

  - DefinitionLoader: resolves workflow documents by name (file tree, memory,
    anything that can yield YAML).
  - RunStore: persists RunRecords so finished runs can be inspected later.
  - DistributedLocker: serializes access to a shared run id across replicas.
*/
package ports
