package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Mask replaces every redacted value.
const Mask = "***"

type piiMiddleware struct {
	next     ports.AuditStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that redacts text matching any of the
// patterns from inputs, outputs and error messages before they are stored.
// Node metadata keys matching a pattern have their whole value masked.
//
// Reads are passed through untouched: redaction is one-way.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, 0, len(patternStrings))
	for _, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return func(next ports.AuditStore) ports.AuditStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) CreateExecution(ctx context.Context, rec domain.ExecutionRecord) (string, error) {
	rec.Input = m.redact(rec.Input)
	rec.Output = m.redact(rec.Output)
	rec.ErrorMessage = m.redact(rec.ErrorMessage)
	return m.next.CreateExecution(ctx, rec)
}

func (m *piiMiddleware) UpdateExecution(ctx context.Context, id string, outcome domain.ExecutionOutcome) error {
	outcome.Output = m.redact(outcome.Output)
	outcome.ErrorMessage = m.redact(outcome.ErrorMessage)
	return m.next.UpdateExecution(ctx, id, outcome)
}

func (m *piiMiddleware) InsertNodeExecution(ctx context.Context, rec domain.NodeExecutionRecord) error {
	rec.Input = m.redact(rec.Input)
	rec.Output = m.redact(rec.Output)
	rec.ErrorMessage = m.redact(rec.ErrorMessage)
	if rec.Metadata != nil {
		// The engine still holds the original map.
		rec.Metadata = deepCopyMap(rec.Metadata)
		m.maskMap(rec.Metadata)
	}
	return m.next.InsertNodeExecution(ctx, rec)
}

func (m *piiMiddleware) GetExecution(ctx context.Context, id string) (*domain.ExecutionRecord, error) {
	return m.next.GetExecution(ctx, id)
}

func (m *piiMiddleware) ListNodeExecutions(ctx context.Context, executionID string) ([]domain.NodeExecutionRecord, error) {
	return m.next.ListNodeExecutions(ctx, executionID)
}

func (m *piiMiddleware) redact(s string) string {
	if s == "" {
		return s
	}
	for _, p := range m.patterns {
		s = p.ReplaceAllLiteralString(s, Mask)
	}
	return s
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func (m *piiMiddleware) maskMap(data map[string]any) {
	for k, v := range data {
		masked := false
		for _, p := range m.patterns {
			if p.MatchString(k) {
				data[k] = Mask
				masked = true
				break
			}
		}
		if masked {
			continue
		}

		switch val := v.(type) {
		case map[string]any:
			m.maskMap(val)
		case string:
			data[k] = m.redact(val)
		}
	}
}
