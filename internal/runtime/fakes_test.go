package runtime_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// stubModel replies with a fixed text, or an error when err is set.
type stubModel struct {
	reply    string
	in, out  int
	err      error
	requests []ports.ModelRequest
}

func (m *stubModel) Invoke(_ context.Context, req ports.ModelRequest) (ports.ModelResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return ports.ModelResponse{}, m.err
	}
	return ports.ModelResponse{Text: m.reply, InputTokens: m.in, OutputTokens: m.out}, nil
}

// echoModel answers with the prompt it received.
type echoModel struct{}

func (echoModel) Invoke(_ context.Context, req ports.ModelRequest) (ports.ModelResponse, error) {
	return ports.ModelResponse{Text: "echo: " + req.UserPrompt, InputTokens: 10, OutputTokens: 5}, nil
}

type stubRetriever struct {
	chunks  []ports.Chunk
	err     error
	owner   string
	query   string
	topK    int
	invoked bool
}

func (r *stubRetriever) Search(_ context.Context, ownerID, query string, topK int) ([]ports.Chunk, error) {
	r.invoked = true
	r.owner, r.query, r.topK = ownerID, query, topK
	return r.chunks, r.err
}

type stubSearch struct {
	hits  []ports.SearchResult
	err   error
	query string
	max   int
}

func (s *stubSearch) Search(_ context.Context, query string, maxResults int) ([]ports.SearchResult, error) {
	s.query, s.max = query, maxResults
	return s.hits, s.err
}

// recordingStore is an in-process AuditStore whose writes can be made to fail.
type recordingStore struct {
	mu         sync.Mutex
	createErr  error
	updateErr  error
	insertErr  error
	executions map[string]*domain.ExecutionRecord
	nodes      []domain.NodeExecutionRecord
}

func newRecordingStore() *recordingStore {
	return &recordingStore{executions: make(map[string]*domain.ExecutionRecord)}
}

func (s *recordingStore) CreateExecution(_ context.Context, rec domain.ExecutionRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	rec.ID = "exec-1"
	s.executions[rec.ID] = &rec
	return rec.ID, nil
}

func (s *recordingStore) UpdateExecution(_ context.Context, id string, outcome domain.ExecutionOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	rec, ok := s.executions[id]
	if !ok {
		return domain.ErrExecutionNotFound
	}
	outcome.Apply(rec)
	return nil
}

func (s *recordingStore) InsertNodeExecution(_ context.Context, rec domain.NodeExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.nodes = append(s.nodes, rec)
	return nil
}

func (s *recordingStore) GetExecution(_ context.Context, id string) (*domain.ExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.executions[id]
	if !ok {
		return nil, domain.ErrExecutionNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *recordingStore) ListNodeExecutions(_ context.Context, id string) ([]domain.NodeExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.NodeExecutionRecord
	for _, n := range s.nodes {
		if n.ExecutionID == id {
			out = append(out, n)
		}
	}
	return out, nil
}

var errBoom = errors.New("boom")

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(step)
		return t
	}
}
