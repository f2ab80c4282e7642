package transport

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"

	"github.com/rs/zerolog/log"
)

const (
	DefaultListenAddr = "0.0.0.0:3000"
	DefaultSocketPath = "/tmp/sensordash.sock"
	DefaultSocketMode = fs.FileMode(0o777)
)

// Config describes where the server accepts connections.
type Config struct {
	Mode Mode
	// ListenAddr is the TCP address used in Development.
	ListenAddr string
	// SocketPath is the unix socket used in Production.
	SocketPath string
	// SocketMode is applied to the socket file after binding so the reverse proxy can connect.
	// It is used as given, zero included.
	SocketMode fs.FileMode
}

func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = DefaultMode()
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.SocketPath == "" {
		c.SocketPath = DefaultSocketPath
	}
}

// Listen binds the listener for the configured mode.
func Listen(cfg Config) (net.Listener, error) {
	cfg.ApplyDefaults()

	switch cfg.Mode {
	case Development:
		ln, err := net.Listen("tcp", cfg.ListenAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr, err)
		}
		log.Info().Str("addr", ln.Addr().String()).Msg("Listening on tcp")
		return ln, nil
	case Production:
		return ListenUnix(cfg.SocketPath, cfg.SocketMode)
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

// ListenUnix binds a unix domain socket at path, removing a stale socket file left by a
// previous run first, and sets the file permissions to perm.
func ListenUnix(path string, perm fs.FileMode) (net.Listener, error) {
	if err := removeStale(path); err != nil {
		return nil, err
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on unix socket %s: %w", path, err)
	}

	if err := os.Chmod(path, perm); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("failed to set permissions on unix socket %s: %w", path, err)
	}

	log.Info().Str("path", path).Str("perm", perm.String()).Msg("Listening on unix socket")

	return ln, nil
}

func removeStale(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat unix socket path %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("unix socket path %s is a directory", path)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale unix socket %s: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("Removed stale unix socket")
	return nil
}
