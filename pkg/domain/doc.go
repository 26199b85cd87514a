/*
Package domain contains the core models of the Arbor workflow engine.

It defines the authored graph (WorkflowDefinition, Node, Edge), the closed set of
node configurations, and the result contract returned to callers. This package is
kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - WorkflowDefinition: the immutable graph a run executes.
  - Node: a typed processing step. Its Config is one of seven sealed config types.
  - Edge: a directed connection. Edges leaving a Conditional carry a "true"/"false" handle.
  - NodeExecutionResult: the outcome of a single node.
  - WorkflowExecutionResult: the uniform outcome of a whole run.
  - ExecutionRecord / NodeExecutionRecord: the audit trail written through ports.AuditStore.
*/
package domain
