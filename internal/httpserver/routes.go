package httpserver

import (
	"net/http"

	"github.com/velic0/game-telemetry/internal/httpserver/middleware"
	"github.com/velic0/game-telemetry/internal/jsonlog"
	"github.com/velic0/game-telemetry/internal/metrics"
	"github.com/velic0/game-telemetry/internal/sink"
)

type Config struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
}

// BuildHandler wires the route table and the middleware chain. Auth and
// rate limiting guard only the event endpoints; health and metrics stay
// open for probes and scrapers.
func BuildHandler(cfg Config, logger *jsonlog.Logger, dispatcher EventDispatcher, s sink.Sink, met *metrics.Metrics) http.Handler {
	h := New(logger, dispatcher, s, met)

	const (
		maxEventBody = 256 << 10 // 256KB
		maxBatchBody = 5 << 20   // 5MB
	)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	guarded := func(name string, maxBody int64, fn http.HandlerFunc) http.Handler {
		var handler http.Handler = fn
		handler = middleware.BodyLimit(maxBody)(handler)
		handler = limiter.Middleware()(handler)
		handler = middleware.Auth(cfg.APIKey)(handler)
		handler = middleware.Instrument(met, name)(handler)
		return handler
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Root)
	mux.HandleFunc("/health", h.Health)
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/events/install", guarded("events_install", maxEventBody, h.PostInstall))
	mux.Handle("/events/purchase", guarded("events_purchase", maxEventBody, h.PostPurchase))
	mux.Handle("/events/batch", guarded("events_batch", maxBatchBody, h.PostBatch))

	var handler http.Handler = mux
	handler = middleware.AccessLog(logger)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.Recover(logger)(handler)

	return handler
}
