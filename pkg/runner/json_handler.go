package runner

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/arbor/internal/xjson"
	"github.com/aretw0/arbor/pkg/domain"
)

// JSONHandler writes the full result as one JSON document.
type JSONHandler struct {
	Writer io.Writer
	Indent bool
}

// NewJSONHandler creates a handler for JSON output.
func NewJSONHandler(w io.Writer, indent bool) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{Writer: w, Indent: indent}
}

func (h *JSONHandler) Result(ctx context.Context, res *domain.WorkflowExecutionResult) error {
	enc := xjson.NewEncoder(h.Writer)
	if h.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}
