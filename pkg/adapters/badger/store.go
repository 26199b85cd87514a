// Package badger provides an embedded AuditStore on top of BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/arbor/internal/xjson"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
)

const (
	executionPrefix = "exec/"
	nodePrefix      = "node/"
)

// Store implements ports.AuditStore on a BadgerDB instance.
//
// Executions live under "exec/<id>". Node records live under
// "node/<execution>/<seq>" with a zero-padded sequence, so a prefix scan
// returns them in insertion order.
type Store struct {
	db  *badger.DB
	seq atomic.Uint64
}

// Option tweaks the badger options before the database is opened.
type Option func(*badger.Options)

// WithLogger routes badger's internal logging to slog.
func WithLogger(logger *slog.Logger) Option {
	return func(o *badger.Options) {
		o.Logger = &badgerLogger{logger: logger.With("component", "badger")}
	}
}

// InMemory keeps all data in memory. The directory argument is ignored.
func InMemory() Option {
	return func(o *badger.Options) {
		o.InMemory = true
		o.Dir = ""
		o.ValueDir = ""
	}
}

// Open opens (or creates) a store in dir.
func Open(dir string, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING)
	bopts.Logger = &badgerLogger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&bopts)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return NewFromDB(db), nil
}

// NewFromDB wraps an already opened database.
func NewFromDB(db *badger.DB) *Store {
	s := &Store{db: db}
	s.seq.Store(uint64(time.Now().UnixNano()))
	return s
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func executionKey(id string) []byte {
	return []byte(executionPrefix + id)
}

func nodeListPrefix(executionID string) []byte {
	return []byte(nodePrefix + executionID + "/")
}

func (s *Store) CreateExecution(_ context.Context, rec domain.ExecutionRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	data, err := xjson.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal execution: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(executionKey(rec.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("save execution: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) UpdateExecution(_ context.Context, id string, outcome domain.ExecutionOutcome) error {
	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := readExecution(txn, id)
		if err != nil {
			return err
		}
		outcome.Apply(rec)
		data, err := xjson.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal execution: %w", err)
		}
		return txn.Set(executionKey(id), data)
	})
}

func (s *Store) InsertNodeExecution(_ context.Context, rec domain.NodeExecutionRecord) error {
	data, err := xjson.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal node execution: %w", err)
	}
	key := fmt.Appendf(nodeListPrefix(rec.ExecutionID), "%020d", s.seq.Add(1))
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("save node execution: %w", err)
	}
	return nil
}

func (s *Store) GetExecution(_ context.Context, id string) (*domain.ExecutionRecord, error) {
	var rec *domain.ExecutionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = readExecution(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) ListNodeExecutions(_ context.Context, executionID string) ([]domain.NodeExecutionRecord, error) {
	out := []domain.NodeExecutionRecord{}
	prefix := nodeListPrefix(executionID)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec domain.NodeExecutionRecord
			err := it.Item().Value(func(val []byte) error {
				return xjson.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readExecution(txn *badger.Txn, id string) (*domain.ExecutionRecord, error) {
	item, err := txn.Get(executionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrExecutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get execution %s: %w", id, err)
	}
	var rec domain.ExecutionRecord
	if err := item.Value(func(val []byte) error {
		return xjson.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("decode execution %s: %w", id, err)
	}
	return &rec, nil
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(f, v...))
}
