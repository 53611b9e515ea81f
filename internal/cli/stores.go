package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/stagehand/internal/config"
	"github.com/aretw0/stagehand/pkg/adapters/file"
	"github.com/aretw0/stagehand/pkg/adapters/memory"
	"github.com/aretw0/stagehand/pkg/adapters/redis"
	"github.com/aretw0/stagehand/pkg/adapters/sqlite"
	"github.com/aretw0/stagehand/pkg/persistence/middleware"
	"github.com/aretw0/stagehand/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Sweeper is implemented by metadata stores that need expired records
// removed explicitly.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Stores holds the configured persistence backends.
type Stores struct {
	Sessions ports.SessionStore
	Metadata ports.MetadataStore

	// Sweeper is set when the metadata backend does not expire records itself.
	Sweeper Sweeper

	closers []func() error
}

// Close releases every connection opened by OpenStores.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenStores builds the session and metadata stores selected by cfg.
// Backends that share a connection (redis, sqlite) open it once. Metadata is
// wrapped with encryption when a key is configured.
func OpenStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Stores, err error) {
	st := &Stores{}
	defer func() {
		if err != nil {
			_ = st.Close()
		}
	}()

	var client *backend.Client
	redisClient := func() (*backend.Client, error) {
		if client != nil {
			return client, nil
		}
		client = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		st.closers = append(st.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		return client, nil
	}

	var db *sql.DB
	sqliteDB := func() (*sql.DB, error) {
		if db != nil {
			return db, nil
		}
		opened, err := sqlite.Open(cfg.Metadata.Path)
		if err != nil {
			return nil, err
		}
		db = opened
		st.closers = append(st.closers, db.Close)
		return db, nil
	}

	switch cfg.Session.Backend {
	case "memory":
		st.Sessions = memory.NewSessionStore()
	case "file":
		st.Sessions = file.New(cfg.Session.Dir)
	case "redis":
		c, err := redisClient()
		if err != nil {
			return nil, err
		}
		st.Sessions = redis.NewSessionStore(c, redis.WithPrefix(cfg.Redis.Prefix), redis.WithTTL(cfg.Session.TTL))
	case "sqlite":
		d, err := sqliteDB()
		if err != nil {
			return nil, err
		}
		st.Sessions = sqlite.NewSessionStore(d)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	switch cfg.Metadata.Backend {
	case "memory":
		store := memory.NewMetadataStore()
		st.Metadata, st.Sweeper = store, store
	case "none":
		st.Metadata = memory.NoopMetadataStore{}
	case "redis":
		c, err := redisClient()
		if err != nil {
			return nil, err
		}
		st.Metadata = redis.NewMetadataStore(c, redis.WithPrefix(cfg.Redis.Prefix))
	case "sqlite":
		d, err := sqliteDB()
		if err != nil {
			return nil, err
		}
		store := sqlite.NewMetadataStore(d)
		st.Metadata, st.Sweeper = store, store
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", cfg.Metadata.Backend)
	}

	active, fallback, err := cfg.Encryption.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		st.Metadata = middleware.Chain(st.Metadata, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
			Namespace:    cfg.Encryption.Namespace,
		}))
	}

	logger.Info("Stores ready",
		"session_backend", cfg.Session.Backend,
		"metadata_backend", cfg.Metadata.Backend,
		"encrypted", active != nil,
	)
	return st, nil
}

// RunSweeper calls s.Sweep every interval until ctx is done.
func RunSweeper(ctx context.Context, s Sweeper, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				logger.Warn("Metadata sweep failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Debug("Swept expired metadata", "removed", n)
			}
		}
	}
}
