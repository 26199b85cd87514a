package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/pkg/adapters/badger"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/adapters/sql"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
)

// openStore opens the audit store selected by cfg.Driver and returns its
// release function.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (ports.AuditStore, func() error, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return memory.NewStore(), func() error { return nil }, nil

	case config.DriverRedis:
		var opts []redis.Option
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		if cfg.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.TTL))
		}
		store := redis.New(cfg.RedisAddr, "", 0, opts...)
		return store, store.Close, nil

	case config.DriverPostgres, config.DriverSQLite:
		store, err := sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.DriverBadger:
		store, err := badger.Open(cfg.BadgerDir, badger.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// protectStore wraps store with the redaction and encryption layers enabled
// in cfg. Redaction runs first so masked text is what gets sealed.
func protectStore(store ports.AuditStore, cfg config.PrivacyConfig) (ports.AuditStore, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		active, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}
