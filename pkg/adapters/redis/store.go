package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/arbor/internal/xjson"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.AuditStore using Redis.
// Executions are JSON strings; node records are JSON items of a list per run,
// which keeps them in insertion order.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for execution records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "arbor:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(id string) string {
	return s.prefix + "execution:" + id
}

func (s *Store) nodesKey(id string) string {
	return s.key(id) + ":nodes"
}

func (s *Store) indexKey() string {
	return s.prefix + "executions"
}

// CreateExecution stores the record and indexes it by start time.
func (s *Store) CreateExecution(ctx context.Context, rec domain.ExecutionRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	data, err := xjson.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal execution: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(rec.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(rec.StartedAt.Unix()),
		Member: rec.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to save to redis: %w", err)
	}
	return rec.ID, nil
}

// UpdateExecution applies the outcome, keeping the record's remaining TTL.
func (s *Store) UpdateExecution(ctx context.Context, id string, outcome domain.ExecutionOutcome) error {
	rec, err := s.GetExecution(ctx, id)
	if err != nil {
		return err
	}
	outcome.Apply(rec)

	data, err := xjson.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), data, backend.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// InsertNodeExecution appends the record to the run's node list.
func (s *Store) InsertNodeExecution(ctx context.Context, rec domain.NodeExecutionRecord) error {
	data, err := xjson.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal node execution: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.nodesKey(rec.ExecutionID), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.nodesKey(rec.ExecutionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append node execution: %w", err)
	}
	return nil
}

// GetExecution loads a record.
func (s *Store) GetExecution(ctx context.Context, id string) (*domain.ExecutionRecord, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrExecutionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var rec domain.ExecutionRecord
	if err := xjson.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
	}
	return &rec, nil
}

// ListNodeExecutions returns the run's node records in insertion order.
func (s *Store) ListNodeExecutions(ctx context.Context, executionID string) ([]domain.NodeExecutionRecord, error) {
	items, err := s.client.LRange(ctx, s.nodesKey(executionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list node executions: %w", err)
	}

	out := make([]domain.NodeExecutionRecord, 0, len(items))
	for _, item := range items {
		var rec domain.NodeExecutionRecord
		if err := xjson.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal node execution: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Recent returns up to n execution IDs, newest first. Entries whose record has
// expired are pruned from the index lazily.
func (s *Store) Recent(ctx context.Context, n int64) ([]string, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	live := ids[:0]
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check execution: %w", err)
		}
		if exists == 0 {
			s.client.ZRem(ctx, s.indexKey(), id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
