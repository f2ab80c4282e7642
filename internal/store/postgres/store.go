package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfeidau/sensordash/internal/store"
)

var (
	_ store.Store       = (*Store)(nil)
	_ store.PoolStatter = (*Store)(nil)
)

// Store implements store.Store using PostgreSQL.
// The pool is safe for concurrent use, so a single Store is shared by every request.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL-backed store on top of an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

// Ping verifies a connection can be acquired and used.
func (s *Store) Ping(ctx context.Context) error {
	return mapPostgresError(s.pool.Ping(ctx))
}

// Close closes all connections in the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// PoolStats reports current pool usage, surfaced by the health endpoint.
func (s *Store) PoolStats() store.PoolStats {
	stat := s.pool.Stat()
	return store.PoolStats{
		MaxConns:      stat.MaxConns(),
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
	}
}
