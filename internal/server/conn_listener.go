package server

import (
	"errors"
	"net"
	"sync"
)

// errConnDone ends http.Server.Serve once the single connection it was given is finished.
var errConnDone = errors.New("connection done")

// connListener is a net.Listener that yields exactly one connection. The second Accept blocks
// until the connection is finished or the listener is closed, which keeps http.Server.Serve
// (and its connection tracking for Shutdown) alive for the connection's lifetime.
type connListener struct {
	conn net.Conn

	mu       sync.Mutex
	accepted bool

	closeOnce sync.Once
	closed    chan struct{}
	doneOnce  sync.Once
	done      chan struct{}
}

func newConnListener(conn net.Conn) *connListener {
	return &connListener{
		conn:   conn,
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (l *connListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if !l.accepted {
		l.accepted = true
		l.mu.Unlock()
		return l.conn, nil
	}
	l.mu.Unlock()

	select {
	case <-l.done:
	case <-l.closed:
	}
	return nil, errConnDone
}

// handedOff reports whether the connection was taken by Accept.
func (l *connListener) handedOff() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accepted
}

// finish marks the connection as closed or hijacked by the server.
func (l *connListener) finish() {
	l.doneOnce.Do(func() { close(l.done) })
}

// wait blocks until finish is called.
func (l *connListener) wait() {
	<-l.done
}

func (l *connListener) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *connListener) Addr() net.Addr {
	return l.conn.LocalAddr()
}
