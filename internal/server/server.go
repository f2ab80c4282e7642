package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/sensordash/internal/telemetry"
)

const DefaultDrainTimeout = 5 * time.Second

// ErrDrainTimeout is returned by Serve when connections were still open after the drain
// timeout and had to be force closed.
var ErrDrainTimeout = errors.New("drain timeout exceeded, connections force closed")

// ConnAdapter serves one accepted connection until the peer is done with it.
//
// ServeConn is called on the connection's own goroutine and may block for the lifetime of the
// connection. Returning an error marks the connection as failed; it is logged and discarded.
type ConnAdapter interface {
	ServeConn(ctx context.Context, conn net.Conn) error
}

// ConnAdapterFunc adapts a function to ConnAdapter.
type ConnAdapterFunc func(ctx context.Context, conn net.Conn) error

func (f ConnAdapterFunc) ServeConn(ctx context.Context, conn net.Conn) error {
	return f(ctx, conn)
}

// Shutdowner is implemented by adapters that support graceful shutdown of in-flight connections.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// ConnServer accepts connections from a listener and serves each one on its own goroutine.
//
// A failure on one connection, including a panic in the adapter, is contained to that
// connection. Accept errors are logged and retried; the loop only ends when the listener is
// closed.
type ConnServer struct {
	adapter      ConnAdapter
	logger       zerolog.Logger
	acceptLogger zerolog.Logger
	drainTimeout time.Duration
	metrics      *telemetry.Metrics

	wg    sync.WaitGroup
	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

type Option func(*ConnServer)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *ConnServer) {
		s.logger = logger
	}
}

func WithDrainTimeout(d time.Duration) Option {
	return func(s *ConnServer) {
		s.drainTimeout = d
	}
}

func NewConnServer(adapter ConnAdapter, opts ...Option) *ConnServer {
	s := &ConnServer{
		adapter:      adapter,
		logger:       log.Logger,
		drainTimeout: DefaultDrainTimeout,
		metrics:      telemetry.GetMetrics(),
		conns:        make(map[net.Conn]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	// a persistent accept failure (e.g. EMFILE) would otherwise flood the log
	s.acceptLogger = s.logger.Sample(&zerolog.BurstSampler{
		Burst:       5,
		Period:      time.Second,
		NextSampler: &zerolog.BasicSampler{N: 1000},
	})

	return s
}

// Serve runs the accept loop until ctx is cancelled or ln is closed, then drains in-flight
// connections. Serve takes ownership of ln.
func (s *ConnServer) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Error().Err(err).Msg("failed to close listener")
		}
	})
	defer stop()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Accepting connections")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				break
			}

			s.metrics.AcceptErrorsTotal.Add(ctx, 1)
			s.acceptLogger.Error().Err(err).Msg("failed to accept connection")
			continue
		}

		s.track(conn)
		s.wg.Add(1)
		go s.handle(ctx, conn)
	}

	return s.drain()
}

func (s *ConnServer) handle(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()

	started := time.Now()
	id := connID()
	logger := s.logger.With().Str("conn_id", id).Str("remote", remoteAddr(conn)).Logger()

	// connections outlive the accept loop's context so they can drain on shutdown
	connCtx := logger.WithContext(context.WithoutCancel(ctx))

	s.metrics.ConnectionsAcceptedTotal.Add(connCtx, 1)
	s.metrics.ActiveConnections.Add(connCtx, 1)

	failed := false
	defer func() {
		if r := recover(); r != nil {
			failed = true
			logger.Error().
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("failed to serve connection")
		}

		s.untrack(conn)
		_ = conn.Close()

		if failed {
			s.metrics.ConnectionErrorsTotal.Add(connCtx, 1)
		}
		s.metrics.ActiveConnections.Add(connCtx, -1)
		s.metrics.ConnectionDuration.Record(connCtx, float64(time.Since(started).Milliseconds()),
			metric.WithAttributes(attribute.Bool("failed", failed)))

		logger.Debug().Dur("duration", time.Since(started)).Msg("connection finished")
	}()

	logger.Debug().Msg("connection accepted")

	if err := s.adapter.ServeConn(connCtx, conn); err != nil && !isClosedConn(err) {
		failed = true
		logger.Error().Err(err).Msg("failed to serve connection")
	}
}

// drain waits for in-flight connections, force closing whatever is left after the drain timeout.
func (s *ConnServer) drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	s.logger.Info().Int("connections", s.activeConns()).Msg("Draining connections")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	if sd, ok := s.adapter.(Shutdowner); ok {
		if err := sd.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn().Err(err).Msg("adapter shutdown failed")
		}
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}

	s.logger.Warn().Int("connections", s.activeConns()).Msg("Drain timeout exceeded, closing connections")
	s.closeAll()
	<-done

	return ErrDrainTimeout
}

func (s *ConnServer) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *ConnServer) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *ConnServer) activeConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *ConnServer) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		_ = conn.Close()
	}
}

func connID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// remoteAddr is empty for unix socket peers, fall back to the local socket path.
func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil && addr.String() != "" {
		return addr.String()
	}
	if addr := conn.LocalAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
