package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wolfeidau/sensordash/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store implements store.Store using in-memory storage.
// This implementation is for development and testing only - data is lost on restart.
type Store struct {
	mu sync.RWMutex

	readings []sensorRow // append order == id order
	users    []userRow
	nextID   int64
	now      func() time.Time
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		now: time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) allocateID() int64 {
	s.nextID++
	return s.nextID
}
