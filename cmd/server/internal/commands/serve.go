package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/wolfeidau/sensordash/internal/server"
	"github.com/wolfeidau/sensordash/internal/state"
	"github.com/wolfeidau/sensordash/internal/telemetry"
	"github.com/wolfeidau/sensordash/internal/templates"
	"github.com/wolfeidau/sensordash/internal/transport"
	"github.com/wolfeidau/sensordash/internal/web"
)

type ServeCmd struct {
	// Server configuration
	Mode       string `help:"run mode (development or production), defaults to production for release builds" env:"SENSORDASH_MODE"`
	Listen     string `help:"TCP listen address in development" default:"0.0.0.0:3000" env:"SENSORDASH_LISTEN"`
	SocketPath string `help:"unix socket path in production" default:"/tmp/sensordash.sock" env:"SENSORDASH_SOCKET_PATH"`
	SocketMode string `help:"octal permissions applied to the unix socket" default:"0777" env:"SENSORDASH_SOCKET_MODE"`

	// Connection lifecycle
	DrainTimeout      time.Duration `help:"how long in-flight connections get to finish on shutdown" default:"5s" env:"SENSORDASH_DRAIN_TIMEOUT"`
	ReadHeaderTimeout time.Duration `help:"how long a client may take to send request headers" default:"5s" env:"SENSORDASH_READ_HEADER_TIMEOUT"`
	IdleTimeout       time.Duration `help:"how long an idle keep-alive connection is kept open" default:"5m" env:"SENSORDASH_IDLE_TIMEOUT"`

	// Content
	TemplatesDir string `help:"directory of page templates" default:"templates" env:"SENSORDASH_TEMPLATES_DIR"`
	StaticDir    string `help:"directory served under /static/ in development" default:"public" env:"SENSORDASH_STATIC_DIR"`

	// CORS and CSRF configuration
	CORSOrigins    []string `help:"allowed CORS origins for API requests" env:"SENSORDASH_CORS_ORIGINS"`
	TrustedOrigins []string `help:"origins allowed to submit forms cross-origin" env:"SENSORDASH_TRUSTED_ORIGINS"`

	// Telemetry
	Tracing              bool          `help:"enable tracing" default:"false" env:"SENSORDASH_TRACING"`
	TraceSampleRatio     float64       `help:"fraction of root traces recorded" default:"1.0" env:"SENSORDASH_TRACE_SAMPLE_RATIO"`
	MetricExportInterval time.Duration `help:"how often otel metrics are exported" default:"10s" env:"SENSORDASH_METRIC_EXPORT_INTERVAL"`

	// Store configuration
	StoreType     string             `help:"store type (postgres or memory)" default:"postgres" env:"SENSORDASH_STORE_TYPE" enum:"postgres,memory"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *ServeCmd) transportConfig() (transport.Config, error) {
	mode, err := transport.ParseMode(c.Mode)
	if err != nil {
		return transport.Config{}, err
	}

	perm, err := strconv.ParseUint(c.SocketMode, 8, 32)
	if err != nil {
		return transport.Config{}, fmt.Errorf("invalid --socket-mode %q: %w", c.SocketMode, err)
	}

	return transport.Config{
		Mode:       mode,
		ListenAddr: c.Listen,
		SocketPath: c.SocketPath,
		SocketMode: fs.FileMode(perm) & fs.ModePerm,
	}, nil
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	tcfg, err := c.transportConfig()
	if err != nil {
		return err
	}
	dev := tcfg.Mode == transport.Development

	log, closer, err := globals.setupLogger(dev)
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Info().
		Str("version", globals.Version).
		Str("mode", tcfg.Mode.String()).
		Msg("Starting server")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		providers, err := telemetry.Init(ctx, telemetry.Options{
			ServiceName:    "sensordash",
			Version:        globals.Version,
			SampleRatio:    c.TraceSampleRatio,
			ExportInterval: c.MetricExportInterval,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := providers.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	st, err := openStore(ctx, c.StoreType, &c.PostgresStore)
	if err != nil {
		return err
	}
	defer st.Close()

	tpl, err := templates.NewFromDir(c.TemplatesDir)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	log.Info().Str("dir", c.TemplatesDir).Strs("templates", tpl.Names()).Msg("Templates loaded")

	shared, err := state.New(tpl, st, tcfg.Mode)
	if err != nil {
		return err
	}

	handler, err := web.NewRouter(shared, web.Config{
		Logger:         log,
		CORSOrigins:    c.CORSOrigins,
		TrustedOrigins: c.TrustedOrigins,
		StaticDir:      c.StaticDir,
		Tracing:        c.Tracing,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := server.NewHTTPServer(handler, server.Timeouts{
		ReadHeader: c.ReadHeaderTimeout,
		Idle:       c.IdleTimeout,
	})

	ln, err := transport.Listen(tcfg)
	if err != nil {
		return err
	}

	if dev {
		err = server.ServeHTTP(ctx, srv, ln, c.DrainTimeout)
	} else {
		var adapter *server.HTTPAdapter
		adapter, err = server.NewHTTPAdapter(srv)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("failed to configure http adapter: %w", err)
		}
		err = server.NewConnServer(adapter,
			server.WithLogger(log),
			server.WithDrainTimeout(c.DrainTimeout),
		).Serve(ctx, ln)
	}

	if errors.Is(err, server.ErrDrainTimeout) {
		log.Warn().Dur("drain_timeout", c.DrainTimeout).Msg("Connections were force closed on shutdown")
		return nil
	}
	if err != nil {
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
