package ports

import "context"

// ModelRequest is a single-turn completion request.
type ModelRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ModelResponse is the reply to a ModelRequest.
type ModelResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// ModelClient invokes a generative model.
type ModelClient interface {
	Invoke(ctx context.Context, req ModelRequest) (ModelResponse, error)
}
