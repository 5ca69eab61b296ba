package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/velic0/game-telemetry/internal/dispatch"
	"github.com/velic0/game-telemetry/internal/domain"
	"github.com/velic0/game-telemetry/internal/httpserver/middleware"
	"github.com/velic0/game-telemetry/internal/jsonlog"
)

// PostBatch accepts 1..500 mixed install/purchase events. Size limits are
// enforced before any element is inspected; one invalid element rejects
// the whole batch.
func (h *Handler) PostBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
		return
	}

	var raw []json.RawMessage
	if err := decodeJSON(r.Body, &raw); err != nil {
		h.writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	if len(raw) == 0 {
		h.writeError(w, http.StatusBadRequest, "BadRequest", "batch must contain at least 1 event")
		return
	}
	if len(raw) > dispatch.ChunkSize {
		h.writeError(w, http.StatusBadRequest, "BadRequest",
			fmt.Sprintf("batch must contain at most %d events", dispatch.ChunkSize))
		return
	}

	events := make([]domain.Event, 0, len(raw))
	for i, item := range raw {
		ev, err := decodeBatchItem(item)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				h.writeError(w, http.StatusUnprocessableEntity, "ValidationError",
					fmt.Sprintf("event %d: %s", i, verr.Error()))
				return
			}
			h.writeError(w, http.StatusUnprocessableEntity, "ValidationError",
				fmt.Sprintf("event %d: %s", i, err.Error()))
			return
		}
		events = append(events, ev)
	}

	h.dispatcher.Enqueue(events)
	if h.met != nil {
		for _, ev := range events {
			h.met.EventsReceived.WithLabelValues(string(ev.Type)).Inc()
		}
	}

	h.logger.Info("batch accepted", jsonlog.Fields{
		"request_id": middleware.GetRequestID(r.Context()),
		"events":     fmt.Sprintf("%d", len(events)),
	})

	writeJSON(w, http.StatusOK, BatchResponse{
		Success:        true,
		AcceptedEvents: len(events),
		Message:        "Batch received",
		Timestamp:      h.clock().UTC(),
	})
}

func decodeBatchItem(raw json.RawMessage) (domain.Event, error) {
	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return domain.Event{}, err
	}

	switch domain.EventType(envelope.EventType) {
	case domain.TypeInstall:
		var p domain.InstallPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return domain.Event{}, err
		}
		return p.ToEvent()
	case domain.TypePurchase:
		var p domain.PurchasePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return domain.Event{}, err
		}
		return p.ToEvent()
	default:
		return domain.Event{}, fmt.Errorf("unknown event_type %q", envelope.EventType)
	}
}
