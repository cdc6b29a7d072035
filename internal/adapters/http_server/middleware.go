package httpserver

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"condo_calendar/internal/adapters/observability"
)

const timeoutBody = `{"type":"about:blank","title":"Timeout","status":503,"detail":"request took too long"}`

// Timeout answers 503 with a problem body when a handler runs past d.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, d, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			th.ServeHTTP(problemOnTimeout{w}, r)
		})
	}
}

// problemOnTimeout labels the bare 503 that http.TimeoutHandler writes. A
// handler's own 503 already carries its headers and is left alone.
type problemOnTimeout struct{ http.ResponseWriter }

func (w problemOnTimeout) WriteHeader(code int) {
	if code == http.StatusServiceUnavailable && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/problem+json")
	}
	w.ResponseWriter.WriteHeader(code)
}

// statusRecorder remembers the first status written.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// routeInfo is read after the handler ran, once chi has matched the route.
type routeInfo struct {
	pattern     string
	condominium string
}

func routeOf(r *http.Request) routeInfo {
	ri := routeInfo{pattern: r.URL.Path}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			ri.pattern = p
		}
		ri.condominium = rctx.URLParam("condo")
	}
	return ri
}

// Metrics counts requests per route and condominium. Client errors drop the
// condominium label and unmatched paths share one route label, so unknown ids
// and scanners cannot grow the series.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		ri := routeOf(r)
		status := sw.Status()
		if status >= 400 && status < 500 {
			ri.condominium = ""
			if ri.pattern == r.URL.Path {
				ri.pattern = "unmatched"
			}
		}
		observability.ObserveHTTP(ri.pattern, r.Method, ri.condominium, status, time.Since(start))
	})
}

// Logger writes one line per request. Server errors log at error level and
// client errors at warn, so a quiet log means a healthy calendar.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			ri := routeOf(r)

			ev := l.Info()
			switch status := sw.Status(); {
			case status >= 500:
				ev = l.Error()
			case status >= 400:
				ev = l.Warn()
			}
			if ri.condominium != "" {
				ev = ev.Str("condominium", ri.condominium)
			}
			if d := r.URL.Query().Get("selected"); d != "" {
				ev = ev.Str("selected", d)
			}
			ev.Str("route", ri.pattern).
				Str("method", r.Method).
				Int("status", sw.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", remoteIP(r)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("http_request")
		})
	}
}

// Picks first X-Forwarded-For IP, else X-Real-IP, else RemoteAddr host.
func remoteIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
