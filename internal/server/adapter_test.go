package server

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
)

func unixClient(path string) *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		},
	}
}

func unixH2Client(path string) (*http.Client, *http2.Transport) {
	tr := &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, _, _ string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", path)
		},
	}
	return &http.Client{Timeout: 5 * time.Second, Transport: tr}, tr
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()

	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func newHTTPConnServer(t *testing.T, handler http.Handler, hook func(net.Conn, http.ConnState)) *ConnServer {
	t.Helper()

	srv := NewHTTPServer(handler, Timeouts{ReadHeader: time.Second, Idle: time.Minute})
	srv.ConnState = hook

	adapter, err := NewHTTPAdapter(srv)
	require.NoError(t, err)

	return NewConnServer(adapter, WithLogger(zerolog.Nop()))
}

func TestHTTPAdapter_http1KeepAlive(t *testing.T) {
	ln, path := unixListener(t)

	var newConns atomic.Int32
	hook := func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			newConns.Add(1)
		}
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Proto+" "+r.URL.Path)
	})

	cancel, errCh := startServer(t, newHTTPConnServer(t, handler, hook), ln)

	client := unixClient(path)
	for _, p := range []string{"/one", "/two", "/three"} {
		resp, body := get(t, client, "http://sensordash"+p)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "HTTP/1.1 "+p, body)
	}

	// requests on one connection are served in order over the same connection
	require.EqualValues(t, 1, newConns.Load())

	client.CloseIdleConnections()
	cancel()
	require.NoError(t, waitServe(t, errCh))
}

func TestHTTPAdapter_h2cPriorKnowledge(t *testing.T) {
	ln, path := unixListener(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Proto)
	})

	cancel, errCh := startServer(t, newHTTPConnServer(t, handler, nil), ln)

	client, tr := unixH2Client(path)
	resp, body := get(t, client, "http://sensordash/")
	require.Equal(t, 2, resp.ProtoMajor)
	require.Equal(t, "HTTP/2.0", body)

	tr.CloseIdleConnections()
	cancel()
	require.NoError(t, waitServe(t, errCh))
}

func TestHTTPAdapter_handlerPanicDoesNotAffectOthers(t *testing.T) {
	ln, path := unixListener(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/panic" {
			panic("handler panicked")
		}
		_, _ = io.WriteString(w, "fine")
	})

	cancel, errCh := startServer(t, newHTTPConnServer(t, handler, nil), ln)

	client := unixClient(path)
	_, err := client.Get("http://sensordash/panic")
	require.Error(t, err)

	resp, body := get(t, client, "http://sensordash/ok")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "fine", body)

	client.CloseIdleConnections()
	cancel()
	require.NoError(t, waitServe(t, errCh))
}

func TestHTTPAdapter_gracefulShutdownCompletesInflight(t *testing.T) {
	ln, path := unixListener(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		_, _ = io.WriteString(w, "slow")
	})

	cancel, errCh := startServer(t, newHTTPConnServer(t, handler, nil), ln)

	type result struct {
		body string
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		resp, err := unixClient(path).Get("http://sensordash/slow")
		if err != nil {
			resCh <- result{err: err}
			return
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		resCh <- result{body: string(b), err: err}
	}()

	<-entered
	cancel()

	time.Sleep(50 * time.Millisecond)
	close(release)

	res := <-resCh
	require.NoError(t, res.err)
	require.Equal(t, "slow", res.body)

	require.NoError(t, waitServe(t, errCh))
}

func TestHTTPAdapter_clientClosesBeforeSending(t *testing.T) {
	ln, path := unixListener(t)

	cancel, errCh := startServer(t, newHTTPConnServer(t, http.NotFoundHandler(), nil), ln)

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	resp, _ := get(t, unixClient(path), "http://sensordash/missing")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	require.NoError(t, waitServe(t, errCh))
}

func TestServeHTTP_development(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Proto)
	})
	srv := NewHTTPServer(handler, Timeouts{ReadHeader: time.Second, Idle: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- ServeHTTP(ctx, srv, ln, time.Second)
	}()

	url := "http://" + ln.Addr().String() + "/"

	client := &http.Client{Timeout: 5 * time.Second}
	_, body := get(t, client, url)
	require.Equal(t, "HTTP/1.1", body)

	h2 := &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
	_, body = get(t, &http.Client{Timeout: 5 * time.Second, Transport: h2}, url)
	require.Equal(t, "HTTP/2.0", body)

	client.CloseIdleConnections()
	h2.CloseIdleConnections()
	cancel()
	require.NoError(t, waitServe(t, errCh))
}
