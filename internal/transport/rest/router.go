package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	RateBurst int
}

func NewRouter(h *Handler, cfg RouterConfig, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(log.With(slog.String("component", "http"))))
	r.Use(middleware.Recoverer)
	if cfg.RateLimit > 0 {
		r.Use(newRateLimiter(cfg.RateLimit, cfg.RateBurst).middleware)
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	r.Mount("/", h.Routes())
	return r
}
