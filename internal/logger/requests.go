package logger

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RequestIDFunc extracts a request identifier, usually set by an earlier middleware.
type RequestIDFunc func(r *http.Request) string

// Requests logs every HTTP request once it completes and attaches a request scoped
// logger to the context for handlers to use via zerolog.Ctx.
type Requests struct {
	logger    zerolog.Logger
	requestID RequestIDFunc
}

func NewRequests(logger zerolog.Logger, requestID RequestIDFunc) *Requests {
	return &Requests{logger: logger, requestID: requestID}
}

func (rq *Requests) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		lc := rq.logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("proto", r.Proto).
			Str("addr", r.RemoteAddr)
		if rq.requestID != nil {
			if id := rq.requestID(r); id != "" {
				lc = lc.Str("request_id", id)
			}
		}
		reqLogger := lc.Logger()

		ctx := reqLogger.WithContext(r.Context())
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r.WithContext(ctx))

		ev := reqLogger.Info()
		if sw.status >= http.StatusInternalServerError {
			ev = reqLogger.Error()
		}
		ev.Int("status", sw.status).
			Int("bytes", sw.bytes).
			Dur("duration", time.Since(started)).
			Msg("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
