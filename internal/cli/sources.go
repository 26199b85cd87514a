package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/loam"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

func openLoader(dir string, useLoam bool) (ports.DefinitionLoader, error) {
	if useLoam {
		return loam.Open(dir)
	}
	return file.New(dir), nil
}

// LoadDefinition resolves ref as a workflow file when one exists at that
// path, and as a stored workflow ID otherwise.
func LoadDefinition(ctx context.Context, loader ports.DefinitionLoader, ref string) (*domain.WorkflowDefinition, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, err
		}
		def, err := arbor.ParseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, err)
		}
		if def.ID == "" {
			def.ID = strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
		}
		return def, nil
	}
	if loader == nil {
		return nil, fmt.Errorf("%q is not a file and no workflow directory is configured", ref)
	}
	return loader.Get(ctx, ref)
}

// indexCorpus loads text documents into r. Files directly under dir belong
// to the anonymous owner; files in a subdirectory belong to the owner named
// by it. It returns the number of documents indexed.
func indexCorpus(r *memory.Retriever, dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
		default:
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		owner := ""
		if parts := strings.SplitN(filepath.ToSlash(rel), "/", 2); len(parts) == 2 {
			owner = parts[0]
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		r.Add(owner, filepath.ToSlash(rel), string(data))
		count++
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("retrieval corpus %s does not exist", dir)
	}
	return count, err
}
