// Package adminhttp serves netconfd's ambient operations surface: a
// liveness probe, the Prometheus scrape endpoint, and a debug session
// table — none of which are part of the NETCONF protocol itself, but
// every repository in this corpus carries an admin HTTP mux alongside its
// primary listener (SPEC_FULL.md §2: "mirroring the teacher's
// pkg/metrics + pkg/api"). It is not a NETCONF transport: spec.md §1
// names datastore/transport concerns external collaborators, and this
// package only exposes read-only introspection over pkg/session state.
package adminhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ncxlabs/netconfd/internal/logger"
	"github.com/ncxlabs/netconfd/pkg/metrics"
	"github.com/ncxlabs/netconfd/pkg/session"
)

// SessionLister is the subset of the multiplexer's session table that the
// admin server needs to render /sessions; pkg/ioloop's Loop satisfies it
// without adminhttp importing ioloop's full scheduling internals.
type SessionLister interface {
	Sessions() []*session.Session
}

// Server wraps a chi router serving the admin endpoints, started
// alongside the NETCONF multiplexer by cmd/netconfd's start command.
type Server struct {
	httpServer *http.Server
	startedAt  time.Time
}

// New constructs the admin HTTP server bound to addr. lister may be nil
// (the /sessions endpoint then reports an empty table), matching the
// teacher's pattern of accepting an optional registry.
func New(addr string, lister SessionLister) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	startedAt := time.Now()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "healthy",
			"uptime": time.Since(startedAt).String(),
		})
	})

	if reg := metrics.Registry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	} else {
		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			http.Error(w, "metrics not enabled", http.StatusServiceUnavailable)
		})
	}

	r.Get("/sessions", func(w http.ResponseWriter, req *http.Request) {
		var snaps []session.Snapshot
		if lister != nil {
			for _, s := range lister.Sessions() {
				snaps = append(snaps, s.Snapshot())
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": snaps})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		startedAt: startedAt,
	}
}

// ListenAndServe runs the admin server until it errors or is shut down.
// It returns http.ErrServerClosed on a clean Shutdown, matching
// net/http.Server's contract.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the admin server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("admin request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
