// db.go
//
// Store selection for the Word Scramble server.
// Responsibilities:
//   - Open the configured backend: memory, SQLite (default) or Postgres.
//   - Apply embedded migrations when RUN_MIGRATIONS is set.
//   - Wrap the store with the Redis leaderboard cache when REDIS_ADDR is set.
//
// The returned cleanup closes every handle that was opened.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordscramble/internal/config"
	"github.com/robalobadob/wordscramble/internal/store"
)

/**
 * openStore builds the store described by cfg.
 *
 * - sqlite:   OpenSQLite + goose migrations (sqlite3 dialect).
 * - postgres: goose migrations over database/sql, then a pgx pool.
 * - memory:   nothing persisted; handy for local play.
 */
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	var (
		st      store.Store
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Store.Driver {
	case "memory":
		st = store.NewMemoryStore()

	case "sqlite":
		db, err := store.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		if cfg.Store.RunMigrations {
			if err := store.Migrate(db, "sqlite3"); err != nil {
				cleanup()
				return nil, nil, err
			}
		}
		st = store.NewSQLiteStore(db)

	case "postgres":
		if cfg.Store.RunMigrations {
			if err := store.MigratePostgres(cfg.Store.DatabaseURL); err != nil {
				return nil, nil, err
			}
		}
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		st = store.NewPostgresStore(pool)

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	log.Info().Str("driver", cfg.Store.Driver).Msg("store ready")

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// The cache is optional; run without it.
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, leaderboard cache disabled")
			_ = rdb.Close()
		} else {
			closers = append(closers, func() { _ = rdb.Close() })
			st = store.WithRedisCache(st, rdb, cfg.Redis.CacheTTL)
			log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.CacheTTL).Msg("leaderboard cache enabled")
		}
	}

	return st, cleanup, nil
}
