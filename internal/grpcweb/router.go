package grpcweb

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"consult-scheduler/internal/rpc"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Bridge  *Bridge
	Metrics http.Handler
	Health  Pinger
	// TrustProxy rewrites RemoteAddr from X-Forwarded-For/X-Real-IP.
	// Only enable behind a proxy that overwrites those headers.
	TrustProxy bool
}

// NewRouter mounts the bridge under /<service>/<method> next to /healthz
// and, when configured, /metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Health.Ping(ctx); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	if cfg.Bridge != nil {
		r.Route("/"+rpc.ServiceName, func(svc chi.Router) {
			svc.Options("/{method}", cfg.Bridge.preflight)
			svc.Post("/{method}", cfg.Bridge.serve)
		})
	}
	return r
}
