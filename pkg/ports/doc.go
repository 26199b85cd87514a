/*
Package ports defines the driven ports (interfaces) of the Arbor engine.

These interfaces decouple the orchestrator from external implementations, so the
engine works with any model provider, retrieval backend, search API, audit
storage or definition source.

# Key Interfaces

  - ModelClient: generative model completions (LLMCall nodes).
  - Retriever: owner-scoped document chunk retrieval (RAGQuery nodes).
  - SearchProvider: web search (WebSearch nodes).
  - AuditStore: execution and per-node audit records.
  - DefinitionLoader: named workflow definitions (e.g. from Loam, files or memory).
*/
package ports
