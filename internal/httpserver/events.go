package httpserver

import (
	"errors"
	"net/http"

	"github.com/velic0/game-telemetry/internal/domain"
	"github.com/velic0/game-telemetry/internal/httpserver/middleware"
	"github.com/velic0/game-telemetry/internal/jsonlog"
)

// payload is the common decode-validate-normalize surface of the two
// event bodies.
type payload interface {
	Validate() error
	ToEvent() (domain.Event, error)
}

func (h *Handler) PostInstall(w http.ResponseWriter, r *http.Request) {
	h.acceptEvent(w, r, &domain.InstallPayload{}, "Install event received")
}

func (h *Handler) PostPurchase(w http.ResponseWriter, r *http.Request) {
	h.acceptEvent(w, r, &domain.PurchasePayload{}, "Purchase event received")
}

// acceptEvent runs the synchronous half of the request state machine:
// decode, validate, acknowledge. Delivery happens after the response via
// the dispatcher queue.
func (h *Handler) acceptEvent(w http.ResponseWriter, r *http.Request, p payload, ackMessage string) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
		return
	}

	if err := decodeJSON(r.Body, p); err != nil {
		h.writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	ev, err := p.ToEvent()
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			h.writeError(w, http.StatusUnprocessableEntity, "ValidationError", verr.Error())
			return
		}
		h.logger.Error(err, jsonlog.Fields{
			"request_id": middleware.GetRequestID(r.Context()),
			"component":  "accept_event",
		})
		h.writeError(w, http.StatusInternalServerError, "InternalError", "internal error")
		return
	}

	h.dispatcher.Enqueue([]domain.Event{ev})
	if h.met != nil {
		h.met.EventsReceived.WithLabelValues(string(ev.Type)).Inc()
	}

	h.logger.Info("event accepted", jsonlog.Fields{
		"request_id": middleware.GetRequestID(r.Context()),
		"event_type": string(ev.Type),
		"event_id":   ev.EventID,
	})

	writeJSON(w, http.StatusOK, EventResponse{
		Success:   true,
		EventID:   ev.EventID,
		Message:   ackMessage,
		Timestamp: h.clock().UTC(),
	})
}
