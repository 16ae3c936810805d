/*
Package ports defines the driven ports (interfaces) of the VFX bridge.

These interfaces decouple the editor and the action engine from concrete
backends, so graph assets can live in memory, on disk, in Redis or in SQLite
and recipes can come from any document source.

# Key Interfaces

  - AssetStore: persists serialized graph assets by path.
  - DistributedLocker: serializes mutations of one asset across replicas.
  - RecipeLoader: retrieves recipe documents (e.g. from Loam or memory).
  - ActionEngine: the entry point adapters (HTTP, MCP, CLI) call.
*/
package ports
