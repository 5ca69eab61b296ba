package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/velic0/game-telemetry/internal/domain"
	"github.com/velic0/game-telemetry/internal/jsonlog"
	"github.com/velic0/game-telemetry/internal/metrics"
	"github.com/velic0/game-telemetry/internal/sink"
)

const apiVersion = "1.0.0"

// EventDispatcher is the async handoff the request path uses. Enqueue
// must not block; delivery outcome never reaches the HTTP caller.
type EventDispatcher interface {
	Enqueue(events []domain.Event)
}

type Handler struct {
	logger     *jsonlog.Logger
	dispatcher EventDispatcher
	sink       sink.Sink
	met        *metrics.Metrics
	clock      func() time.Time
}

func New(logger *jsonlog.Logger, dispatcher EventDispatcher, s sink.Sink, met *metrics.Metrics) *Handler {
	return &Handler{
		logger:     logger,
		dispatcher: dispatcher,
		sink:       s,
		met:        met,
		clock:      time.Now,
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Game Analytics API",
		"version": apiVersion,
	})
}

// Health reports degraded when the sink's own health check fails; the
// API keeps accepting events either way.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	if !h.sink.Healthy(ctx) {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: h.clock().UTC(),
		Version:   apiVersion,
	})
}
