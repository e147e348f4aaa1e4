// Package repository provides the forum stores the search module reads
// from: a PostgreSQL store over a relational forum schema and a Redis store
// over the NodeBB key layout.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"forum_search_backend/internal/search/ports"
)

// DBTX is the subset of *pgxpool.Pool the PostgreSQL store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

var (
	_ ports.Store = (*PostgresStore)(nil)
	_ ports.Store = (*RedisStore)(nil)
)

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// orderByPIDs reorders items to follow pids, dropping anything not present.
func orderByPIDs[T any](pids []int64, items []T, pidOf func(T) int64) []T {
	byPID := make(map[int64]T, len(items))
	for _, item := range items {
		byPID[pidOf(item)] = item
	}
	out := make([]T, 0, len(items))
	for _, pid := range pids {
		if item, ok := byPID[pid]; ok {
			out = append(out, item)
			delete(byPID, pid)
		}
	}
	return out
}
