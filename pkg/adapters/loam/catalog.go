// Package loam adapts a Loam document repository into a workflow catalog:
// every Markdown, JSON or YAML document whose frontmatter carries nodes and
// edges is one workflow definition.
package loam

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/loam"
)

// Catalog implements ports.DefinitionLoader over a Loam repository.
type Catalog struct {
	Repo   *loam.TypedRepository[WorkflowMetadata]
	parser *compiler.Parser
}

// New creates a catalog over a typed repository.
func New(repo *loam.TypedRepository[WorkflowMetadata]) *Catalog {
	return &Catalog{Repo: repo, parser: compiler.NewParser()}
}

// Open initializes a read-only Loam repository at path.
//
// Strict mode makes every adapter (JSON, Markdown/YAML) return json.Number
// for numerals, which the compiler accepts for integer and float fields alike.
func Open(path string) (*Catalog, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[WorkflowMetadata](repo)), nil
}

// Get compiles the workflow stored under id.
func (c *Catalog) Get(ctx context.Context, id string) (*domain.WorkflowDefinition, error) {
	doc, err := c.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || !c.exists(ctx, id) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	def, err := c.parser.Compile(doc.Data.document())
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", id, err)
	}
	def.ID = workflowID(doc.ID, doc.Data)
	return def, nil
}

// List returns the IDs of every document that defines nodes, sorted.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Data.Nodes) == 0 {
			continue
		}
		id := workflowID(doc.ID, doc.Data)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (c *Catalog) exists(ctx context.Context, id string) bool {
	ids, err := c.List(ctx)
	if err != nil {
		return true
	}
	return slices.Contains(ids, id)
}

// Save stores def as a document with the given description as its body.
func (c *Catalog) Save(ctx context.Context, def *domain.WorkflowDefinition, description string) error {
	doc, err := compiler.Decompile(def)
	if err != nil {
		return err
	}
	return c.Repo.Save(ctx, &loam.DocumentModel[WorkflowMetadata]{
		ID:      def.ID,
		Content: description,
		Data: WorkflowMetadata{
			ID:    doc.ID,
			Name:  doc.Name,
			Nodes: doc.Nodes,
			Edges: doc.Edges,
		},
	})
}

// workflowID prefers the frontmatter id and falls back to the document path
// without its extension.
func workflowID(docID string, meta WorkflowMetadata) string {
	raw := meta.ID
	if raw == "" {
		raw = docID
	}
	if ext := filepath.Ext(raw); ext != "" {
		raw = strings.TrimSuffix(raw, ext)
	}
	return filepath.ToSlash(raw)
}
