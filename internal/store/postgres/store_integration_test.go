//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/sensordash/internal/models"
	"github.com/wolfeidau/sensordash/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*Store, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := NewPool(ctx, &PoolConfig{ConnString: connString, TimeZone: "UTC"})
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return NewStore(pool), cleanup
}

func TestIntegration_Store(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, Migrate(ctx, st.pool))
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, st.Ping(ctx))
	})

	t.Run("empty tables list as empty slices", func(t *testing.T) {
		users, err := st.ListUsers(ctx)
		require.NoError(t, err)
		require.NotNil(t, users)
		require.Empty(t, users)

		readings, err := st.ListRecentReadings(ctx, store.DefaultRecentReadings)
		require.NoError(t, err)
		require.NotNil(t, readings)
		require.Empty(t, readings)

		body, err := json.Marshal(users)
		require.NoError(t, err)
		require.JSONEq(t, `[]`, string(body))
	})

	t.Run("non positive limit lists nothing", func(t *testing.T) {
		for _, limit := range []int{0, -1} {
			readings, err := st.ListRecentReadings(ctx, limit)
			require.NoError(t, err)
			require.NotNil(t, readings)
			require.Empty(t, readings)
		}
	})

	t.Run("pool stats", func(t *testing.T) {
		stats := st.PoolStats()
		require.Positive(t, stats.MaxConns)
		require.GreaterOrEqual(t, stats.TotalConns, stats.IdleConns)
	})

	t.Run("create and list readings", func(t *testing.T) {
		for i := range 7 {
			reading, err := st.CreateReading(ctx, models.CreateReadingInput{Temperature: 35.5 + float64(i)/10, HeartRate: int32(60 + i)})
			require.NoError(t, err)
			require.NotZero(t, reading.ID)
			require.False(t, reading.RecordedAt.IsZero())
		}

		readings, err := st.ListRecentReadings(ctx, store.DefaultRecentReadings)
		require.NoError(t, err)
		require.Len(t, readings, store.DefaultRecentReadings)
		require.Equal(t, int32(66), readings[0].HeartRate)
	})

	t.Run("invalid reading rejected before query", func(t *testing.T) {
		_, err := st.CreateReading(ctx, models.CreateReadingInput{Temperature: 36, HeartRate: 999})
		require.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("create and list users", func(t *testing.T) {
		_, err := st.CreateUser(ctx, models.CreateUserInput{Username: "alice", Email: "alice@example.com"})
		require.NoError(t, err)
		_, err = st.CreateUser(ctx, models.CreateUserInput{Username: "bob", Email: "bob@example.com"})
		require.NoError(t, err)

		users, err := st.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		require.Equal(t, "bob", users[0].Username)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := st.CreateUser(ctx, models.CreateUserInput{Username: "alice", Email: "again@example.com"})
		require.ErrorIs(t, err, store.ErrUserAlreadyExists)
	})

	t.Run("pool shared across goroutines", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 50)
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := st.CreateReading(ctx, models.CreateReadingInput{Temperature: 20, HeartRate: int32(i)}); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
	})
}
