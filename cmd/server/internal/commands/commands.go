package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/sensordash/internal/logger"
	"github.com/wolfeidau/sensordash/internal/store"
	memorystore "github.com/wolfeidau/sensordash/internal/store/memory"
	postgresstore "github.com/wolfeidau/sensordash/internal/store/postgres"
)

type Globals struct {
	Version  string
	LogLevel string
	LogDir   string
}

// setupLogger configures the process logger and installs it as the zerolog/log default.
func (g *Globals) setupLogger(dev bool) (zerolog.Logger, io.Closer, error) {
	lg, closer, err := logger.Setup(logger.Options{
		Dev:   dev,
		Level: g.LogLevel,
		Dir:   g.LogDir,
	})
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	log.Logger = lg

	return lg, closer, nil
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"DATABASE_URL"`
	TimeZone   string `help:"session time zone for every connection" default:"Asia/Tokyo" env:"SENSORDASH_POSTGRES_TIME_ZONE"`

	// Connection Pool Configuration
	MaxConns            int32         `help:"maximum number of connections in pool" default:"10"`
	MinConns            int32         `help:"minimum number of connections in pool" default:"1"`
	MaxConnLifetime     time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime     time.Duration `help:"maximum connection idle time" default:"30m"`
	ConnectRetryTimeout time.Duration `help:"how long startup retries an unreachable database" default:"30s" env:"SENSORDASH_POSTGRES_CONNECT_RETRY_TIMEOUT"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"SENSORDASH_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or DATABASE_URL)")
	}
	if s.MinConns > s.MaxConns {
		return fmt.Errorf("--postgres-min-conns (%d) exceeds --postgres-max-conns (%d)", s.MinConns, s.MaxConns)
	}
	return nil
}

func (s *PostgresStoreFlags) poolConfig() *postgresstore.PoolConfig {
	return &postgresstore.PoolConfig{
		ConnString:          s.ConnString,
		MaxConns:            s.MaxConns,
		MinConns:            s.MinConns,
		MaxConnLifetime:     s.MaxConnLifetime,
		MaxConnIdleTime:     s.MaxConnIdleTime,
		ConnectRetryTimeout: s.ConnectRetryTimeout,
		TimeZone:            s.TimeZone,
	}
}

// openStore creates the store selected by storeType.
func openStore(ctx context.Context, storeType string, flags *PostgresStoreFlags) (store.Store, error) {
	switch storeType {
	case "memory":
		log.Info().Msg("Using in-memory store")
		return memorystore.NewStore(), nil

	case "postgres":
		if err := flags.validate(); err != nil {
			return nil, err
		}

		pool, err := postgresstore.NewPool(ctx, flags.poolConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		// Run migrations if enabled
		if flags.AutoMigrate {
			if err := postgresstore.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		log.Info().Msg("Using PostgreSQL store")
		return postgresstore.NewStore(pool), nil

	default:
		return nil, fmt.Errorf("unknown store type %q", storeType)
	}
}
