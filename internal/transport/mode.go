package transport

import "fmt"

// Mode selects the run configuration. It is decided once at startup and never changes.
type Mode string

const (
	// Development serves TCP on a host:port and reloads templates before each page render.
	Development Mode = "development"
	// Production serves a unix domain socket behind a reverse proxy.
	Production Mode = "production"
)

// DefaultMode is Production for binaries built with -tags release, Development otherwise.
func DefaultMode() Mode {
	return defaultMode
}

// ParseMode accepts the mode names plus the short forms dev and prod.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "":
		return DefaultMode(), nil
	case string(Development), "dev":
		return Development, nil
	case string(Production), "prod":
		return Production, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected development or production)", s)
	}
}

func (m Mode) String() string {
	return string(m)
}
