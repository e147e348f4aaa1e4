package repository

import (
	"context"
	"fmt"

	"forum_search_backend/internal/search/ports"
	"forum_search_backend/platform/config"
	"forum_search_backend/platform/db"
)

// Seeder loads a fixture into a store.
type Seeder interface {
	Seed(ctx context.Context, f *Fixture) error
}

// Backend is an opened forum store together with its seeder and closer.
type Backend struct {
	Driver string
	Store  ports.Store
	Seeder Seeder
	close  func()
}

// Close releases the underlying connections.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// Open connects to the store selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig, opts db.PoolOptions) (*Backend, error) {
	switch cfg.GetStoreDriver() {
	case config.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, cfg, opts)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(pool)
		return &Backend{Driver: config.StoreDriverPostgres, Store: store, Seeder: store, close: pool.Close}, nil
	case config.StoreDriverRedis:
		client, err := db.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := NewRedisStore(client)
		return &Backend{Driver: config.StoreDriverRedis, Store: store, Seeder: store, close: func() { _ = client.Close() }}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.GetStoreDriver())
	}
}
