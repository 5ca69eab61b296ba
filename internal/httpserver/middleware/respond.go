package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

// errorBody mirrors the API's error response shape so middleware
// rejections look identical to handler rejections.
type errorBody struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func writeError(w http.ResponseWriter, code int, errName, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorBody{
		Success:   false,
		Error:     errName,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	})
}
