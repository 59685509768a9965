package cli

import (
	"context"
	"fmt"
	"time"

	"exam-bot/internal/config"
	"exam-bot/internal/infra/file"
	"exam-bot/internal/infra/memory"
	"exam-bot/internal/infra/postgres"
	redisstore "exam-bot/internal/infra/redis"
	"exam-bot/internal/infra/sqlite"
	"exam-bot/internal/store"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// storage is the opened persistence layer plus whatever must be closed afterwards.
type storage struct {
	store   *store.Store
	redis   *redis.Client
	closers []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStorage builds the configured backend and wraps it in a Store with the
// configured subjects bootstrapped.
func openStorage(ctx context.Context, cfg config.Config) (*storage, error) {
	st := &storage{}
	if cfg.Redis.Addr != "" {
		st.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		client := st.redis
		st.closers = append(st.closers, func() { _ = client.Close() })
	}

	var backend store.Backend
	switch cfg.Storage.Backend {
	case config.BackendFile:
		b, err := file.NewBackend(cfg.Storage.Dir)
		if err != nil {
			return nil, err
		}
		backend = b
	case config.BackendMemory:
		backend = memory.NewBackend()
	case config.BackendRedis:
		if st.redis == nil {
			st.Close()
			return nil, fmt.Errorf("redis backend selected but redis.addr is empty")
		}
		backend = redisstore.NewBackend(st.redis, cfg.Redis.Prefix)
	case config.BackendPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			st.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)
		backend = postgres.NewBackend(pool)
	case config.BackendSQLite:
		b, err := sqlite.NewBackend(cfg.SQLite.Path)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = b.Close() })
		backend = b
	default:
		st.Close()
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	st.store = store.New(backend, config.TTLDuration(cfg.Storage.CacheTTL, 10*time.Minute))
	if err := st.store.Bootstrap(ctx, cfg.SubjectNames()); err != nil {
		st.Close()
		return nil, fmt.Errorf("bootstrap questions: %w", err)
	}
	return st, nil
}
