package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/kvmesh-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Stats reports database totals for /ready.
	Stats handler.StatsFunc

	// Ready reports whether the protocol listener is accepting. Nil means
	// always ready.
	Ready func() bool

	// Metrics serves /metrics. Nil disables the route.
	Metrics http.Handler

	// Recorder receives per-request metrics. May be nil.
	Recorder RequestRecorder

	Logger *slog.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}

	h := handler.New(handler.Config{
		Stats:   cfg.Stats,
		Ready:   cfg.Ready,
		Metrics: cfg.Metrics,
		Logger:  l,
	})

	return Chain(h,
		Recover(l),
		RequestID(),
		AccessLog(l, cfg.Recorder),
	)
}
