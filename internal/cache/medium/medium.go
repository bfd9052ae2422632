// Package medium provides the storage backends behind the cache store:
// in-process memory, Redis, PostgreSQL and a local directory.
package medium

import (
	"context"
	"fmt"

	"agenda/internal/cache"
	"agenda/internal/platform/config"
	"agenda/internal/platform/postgres"
	"agenda/internal/platform/redis"
)

var (
	_ cache.Medium = (*Memory)(nil)
	_ cache.Medium = (*Redis)(nil)
	_ cache.Medium = (*Postgres)(nil)
	_ cache.Medium = (*File)(nil)
)

// Open builds the medium selected by cfg.Cache.Medium. An empty name selects
// the in-process memory medium. The returned close function releases any
// connection the medium holds and is never nil.
func Open(ctx context.Context, cfg config.Config) (cache.Medium, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Cache.Medium {
	case "", config.MediumMemory:
		return NewMemory(), noop, nil

	case config.MediumRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		if client == nil {
			return nil, noop, fmt.Errorf("redis medium requires REDIS_URL")
		}
		return NewRedis(client.Client), client.Close, nil

	case config.MediumPostgres:
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, noop, err
		}
		if db == nil {
			return nil, noop, fmt.Errorf("postgres medium requires DATABASE_URL")
		}
		store := NewPostgres(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return store, db.Close, nil

	case config.MediumFile:
		store, err := NewFile(cfg.Cache.Dir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown cache medium %q", cfg.Cache.Medium)
	}
}
