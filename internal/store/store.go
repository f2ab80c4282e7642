package store

import (
	"context"
	"errors"

	"github.com/wolfeidau/sensordash/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUnavailable       = errors.New("store unavailable")
)

// DefaultRecentReadings is how many readings the dashboard shows.
const DefaultRecentReadings = 5

// SensorStore defines the interface for sensor reading storage operations.
type SensorStore interface {
	// CreateReading stores a new reading stamped with the current time.
	// Returns an error wrapping models.ErrInvalidInput if the input fails validation.
	CreateReading(ctx context.Context, in models.CreateReadingInput) (*models.SensorReading, error)

	// ListRecentReadings returns at most limit readings, newest first.
	// A limit of zero or less yields an empty list.
	ListRecentReadings(ctx context.Context, limit int) ([]*models.SensorReading, error)
}

// UserStore defines the interface for user storage operations.
type UserStore interface {
	// CreateUser stores a new user.
	// Returns ErrUserAlreadyExists if the username is taken.
	CreateUser(ctx context.Context, in models.CreateUserInput) (*models.User, error)

	// ListUsers returns every user, newest first.
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Store is the handle to the backing database shared by every request.
// Implementations must be safe for concurrent use without external locking.
type Store interface {
	SensorStore
	UserStore

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close()
}

// PoolStats is a snapshot of connection pool usage.
type PoolStats struct {
	MaxConns      int32 `json:"max_conns"`
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
}

// PoolStatter is implemented by stores backed by a connection pool.
type PoolStatter interface {
	PoolStats() PoolStats
}
