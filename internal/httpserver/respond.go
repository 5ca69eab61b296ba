package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// EventResponse acknowledges a single accepted event. Acceptance means the
// event passed validation and was handed to the dispatcher; it says
// nothing about eventual delivery.
type EventResponse struct {
	Success   bool      `json:"success"`
	EventID   string    `json:"event_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type BatchResponse struct {
	Success        bool      `json:"success"`
	AcceptedEvents int       `json:"accepted_events"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func decodeJSON(body io.ReadCloser, dst any) error {
	defer body.Close()

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return err
	}

	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			return errors.New("invalid JSON: trailing data")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, code int, errName, msg string) {
	writeJSON(w, code, ErrorResponse{
		Success:   false,
		Error:     errName,
		Message:   msg,
		Timestamp: h.clock().UTC(),
	})
}
