package server

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// isClosedConn reports errors caused by the peer going away, which are normal at the end of a
// connection's life and not worth reporting.
func isClosedConn(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
