/*
Package arbor runs workflow graphs: directed acyclic graphs of typed nodes that
call a language model, query a document index, search the web, reshape text
and branch on conditions.

# Concept

A workflow is authored as JSON or YAML (nodes, edges and per-type data) and
compiled into a WorkflowDefinition. The engine validates it, orders the nodes
topologically and runs them one at a time. Each node receives the joined
outputs of its completed predecessors. A Conditional node picks a "true" or
"false" branch and every node reachable only through the other branch is
recorded as skipped. The first failing node ends the run.

Every run returns the same WorkflowExecutionResult shape, whether it failed
validation, failed at a node, timed out or completed.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"
		"os"

		"github.com/aretw0/arbor"
		"github.com/aretw0/arbor/pkg/adapters/anthropic"
		"github.com/aretw0/arbor/pkg/domain"
	)

	func main() {
		data, err := os.ReadFile("summarize.yaml")
		if err != nil {
			log.Fatal(err)
		}
		def, err := arbor.ParseDefinition(data)
		if err != nil {
			log.Fatal(err)
		}

		engine, err := arbor.New("",
			arbor.WithModelClient(anthropic.New(os.Getenv("ANTHROPIC_API_KEY"))),
		)
		if err != nil {
			log.Fatal(err)
		}

		res := engine.Execute(context.Background(), def, "some long text", domain.RunIdentity{WorkflowID: def.ID})
		fmt.Println(res.Status, res.Output)
	}

# Adapters

Collaborators are ports (see pkg/ports) with adapters under pkg/adapters:
Anthropic and Tavily clients, audit stores backed by memory, Redis, SQL
(PostgreSQL or SQLite) and Badger, and workflow loaders backed by memory, a
directory of files or a Loam repository. The HTTP and MCP adapters expose the
engine to services and AI agents.

Audit stores can be wrapped with pkg/persistence/middleware to redact personal
data or encrypt run text at rest. DataTransform operations beyond the built-in
ones are registered through pkg/registry and WithTransforms.
*/
package arbor
