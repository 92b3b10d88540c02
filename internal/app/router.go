package app

import (
	"log/slog"
	"net/http"

	"github.com/heartmarshall/hanzi-backend/internal/config"
	"github.com/heartmarshall/hanzi-backend/internal/transport/middleware"
	"github.com/heartmarshall/hanzi-backend/internal/transport/rest"
)

type handlers struct {
	health  *rest.HealthHandler
	imports *rest.ImportHandler
	dict    *rest.DictHandler
}

// routes registers every endpoint on a fresh mux and wraps it in the global
// middleware chain. Upload and trigger share the per-IP import limiter.
func routes(cfg *config.Config, logger *slog.Logger, h handlers, limiter *middleware.RateLimiter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.health.Live)
	mux.HandleFunc("GET /ready", h.health.Ready)
	mux.HandleFunc("GET /health", h.health.Health)

	limited := limiter.Limit(cfg.Import.RateLimitPerMinute)
	mux.Handle("POST /admin/import/upload", middleware.Chain(limited)(http.HandlerFunc(h.imports.Upload)))
	mux.Handle("POST /admin/import/trigger", middleware.Chain(limited)(http.HandlerFunc(h.imports.Trigger)))
	mux.HandleFunc("GET /admin/import/status/{id}", h.imports.Status)

	mux.HandleFunc("GET /dict/search", h.dict.Search)

	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	)(mux)
}
