package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
)

// http2Preface is the start of the client connection preface, "PRI * HTTP/2.0".
var http2Preface = []byte("PRI ")

// HTTPAdapter serves HTTP/1.1 and cleartext HTTP/2 connections with a shared http.Server.
type HTTPAdapter struct {
	srv   *http.Server
	h2    *http2.Server
	sniff time.Duration

	listeners sync.Map // net.Conn -> *connListener
}

// NewHTTPAdapter wraps srv, which carries the handler and timeouts. Its ConnState hook is
// replaced; any hook already set is still called.
func NewHTTPAdapter(srv *http.Server) (*HTTPAdapter, error) {
	a := &HTTPAdapter{
		srv:   srv,
		h2:    &http2.Server{IdleTimeout: srv.IdleTimeout},
		sniff: srv.ReadHeaderTimeout,
	}

	// registers h2 graceful shutdown with srv.Shutdown
	if err := http2.ConfigureServer(srv, a.h2); err != nil {
		return nil, err
	}

	prev := srv.ConnState
	srv.ConnState = func(conn net.Conn, state http.ConnState) {
		if prev != nil {
			prev(conn, state)
		}
		if state == http.StateClosed || state == http.StateHijacked {
			if l, ok := a.listeners.LoadAndDelete(conn); ok {
				l.(*connListener).finish()
			}
		}
	}

	return a, nil
}

func (a *HTTPAdapter) ServeConn(ctx context.Context, conn net.Conn) error {
	pc, isH2, err := a.sniffPreface(conn)
	if err != nil {
		return err
	}

	if isH2 {
		a.h2.ServeConn(pc, &http2.ServeConnOpts{
			Context:    ctx,
			BaseConfig: a.srv,
			Handler:    a.srv.Handler,
		})
		return nil
	}

	l := newConnListener(pc)
	a.listeners.Store(pc, l)
	defer a.listeners.Delete(pc)

	err = a.srv.Serve(l)

	// Serve returns as soon as its listener closes, which on shutdown happens while the
	// request is still in flight
	if l.handedOff() {
		l.wait()
	}

	switch {
	case errors.Is(err, errConnDone):
		return nil
	case errors.Is(err, http.ErrServerClosed):
		// shutting down, the connection was either drained by Shutdown or never started
		return nil
	default:
		return err
	}
}

func (a *HTTPAdapter) Shutdown(ctx context.Context) error {
	return a.srv.Shutdown(ctx)
}

// sniffPreface peeks at the first bytes to pick the protocol without consuming them.
func (a *HTTPAdapter) sniffPreface(conn net.Conn) (net.Conn, bool, error) {
	if a.sniff > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(a.sniff)); err != nil {
			return nil, false, err
		}
	}

	br := bufio.NewReader(conn)
	head, err := br.Peek(len(http2Preface))
	if err != nil {
		return nil, false, err
	}

	if a.sniff > 0 {
		if err := conn.SetReadDeadline(time.Time{}); err != nil {
			return nil, false, err
		}
	}

	return &peekedConn{Conn: conn, r: br}, bytes.Equal(head, http2Preface), nil
}

// peekedConn replays bytes buffered while sniffing.
type peekedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *peekedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}
