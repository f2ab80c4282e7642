package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Timeouts bound how long a stalled client can hold a connection.
type Timeouts struct {
	ReadHeader time.Duration
	Idle       time.Duration
}

func NewHTTPServer(handler http.Handler, timeouts Timeouts) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       timeouts.Idle,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

// ServeHTTP runs srv on ln with cleartext HTTP/2 enabled until ctx is cancelled, then shuts
// down gracefully within drainTimeout.
func ServeHTTP(ctx context.Context, srv *http.Server, ln net.Listener, drainTimeout time.Duration) error {
	srv.Handler = h2c.NewHandler(srv.Handler, &http2.Server{IdleTimeout: srv.IdleTimeout})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("Starting HTTP server")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return ErrDrainTimeout
	}

	return <-errCh
}
