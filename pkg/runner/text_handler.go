package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// TextHandler prints the run output, or the error, as plain text.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer
	// Verbose adds one status line per node and a usage footer.
	Verbose bool
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithVerbose enables the per-node summary.
func WithVerbose(v bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.Verbose = v
	}
}

// NewTextHandler creates a handler writing to w (stdout when nil).
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{Writer: w}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Result(ctx context.Context, res *domain.WorkflowExecutionResult) error {
	if h.Verbose {
		ids := make([]string, 0, len(res.NodeResults))
		for id := range res.NodeResults {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			nr := res.NodeResults[id]
			fmt.Fprintf(h.Writer, "[%s] %s (%dms)\n", nr.Status, id, nr.LatencyMs)
		}
	}

	if res.Status != domain.RunStatusCompleted {
		_, err := fmt.Fprintf(h.Writer, "Error: %s\n", res.ErrorMessage)
		return err
	}

	output := res.Output
	if h.Renderer != nil {
		if rendered, err := h.Renderer(output); err == nil {
			output = rendered
		}
	}
	if _, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output)); err != nil {
		return err
	}

	if h.Verbose {
		fmt.Fprintf(h.Writer, "\ntokens=%d cost=$%.6f duration=%dms\n", res.TotalTokens, res.TotalCost, res.DurationMs)
	}
	return nil
}
