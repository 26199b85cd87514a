// Package file loads workflow definitions from a directory of JSON and YAML
// documents.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/runner"
)

var extensions = []string{".json", ".yaml", ".yml"}

// Loader implements ports.DefinitionLoader over a directory. Each file holds
// one workflow; its ID is the document's "id" or, failing that, the file name
// without extension.
type Loader struct {
	BasePath string
	parser   *compiler.Parser
}

// New creates a new Loader with the given base path.
// If basePath is empty, it defaults to "workflows".
func New(basePath string) *Loader {
	if basePath == "" {
		basePath = "workflows"
	}
	return &Loader{BasePath: basePath, parser: compiler.NewParser()}
}

// Get parses the workflow with the given ID.
func (l *Loader) Get(ctx context.Context, id string) (*domain.WorkflowDefinition, error) {
	index, err := l.index()
	if err != nil {
		return nil, err
	}
	path, ok := index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
	}
	def, err := l.load(path)
	if err != nil {
		return nil, err
	}
	def.ID = id
	return def, nil
}

// List returns the IDs of all workflows in the directory, sorted.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	index, err := l.index()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Save writes def as JSON atomically: it writes to a temporary file first,
// syncs via fsync, and then renames it to <id>.json.
func (l *Loader) Save(ctx context.Context, def *domain.WorkflowDefinition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("definition missing ID")
	}
	if err := os.MkdirAll(l.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure workflow directory: %w", err)
	}

	data, err := compiler.MarshalJSON(def)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	destPath := filepath.Join(l.BasePath, def.ID+".json")

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(l.BasePath, "tmp-"+def.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename workflow file: %w", err)
	}
	return nil
}

func (l *Loader) load(path string) (*domain.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if data, err = runner.SanitizeDefinition(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	var def *domain.WorkflowDefinition
	if filepath.Ext(path) == ".json" {
		def, err = l.parser.ParseJSON(data)
	} else {
		def, err = l.parser.ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return def, nil
}

// index maps workflow IDs to file paths and rejects two files that claim the
// same ID.
func (l *Loader) index() (map[string]string, error) {
	entries, err := os.ReadDir(l.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read workflow directory: %w", err)
	}

	index := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		ext := filepath.Ext(name)
		if entry.IsDir() || !isWorkflowFile(ext) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		path := filepath.Join(l.BasePath, name)
		id := strings.TrimSuffix(name, ext)
		if def, err := l.load(path); err == nil && def.ID != "" {
			id = def.ID
		}
		if existing, ok := index[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, filepath.Base(existing), name)
		}
		index[id] = path
	}
	return index, nil
}

func isWorkflowFile(ext string) bool {
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
