// Package web serves the browser-facing pages: registration, login, the
// gated secrets page and the gated download.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophsecrets/internal/logging"
	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterConfig struct {
	Handler     *Handler
	Sessions    SessionManager
	DB          Pinger // optional, checked by /healthz
	Log         logging.Logger
	Metrics     bool // expose /metrics
	Development bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(prometheusMiddleware)
	}
	r.Use(newSecure(secureOptions(cfg.Development)))

	r.Get("/healthz", healthz(cfg.DB))
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	h := cfg.Handler
	r.Get("/", h.Home)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(cfg.Sessions.RequireAuthenticated)
		r.Get("/secrets", h.Secrets)
		r.Get("/logout", h.Logout)
		r.Get("/download", h.Download)
	})

	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("database unavailable"))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	}
}
