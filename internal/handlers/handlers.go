// Package handlers exposes the engine over HTTP. The engine packages stay
// pure; everything request-shaped (decoding, status codes, the cached graph)
// lives here.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorResponse is the JSON error response structure.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeInternalError(w http.ResponseWriter, msg string, err error) {
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: msg,
		Details: map[string]interface{}{
			"internal": err.Error(),
		},
	})
}

// WriteHealth emits the health-check payload with a database status.
func WriteHealth(w http.ResponseWriter, status int, overall, database string, err error) {
	body := map[string]interface{}{
		"status":    overall,
		"database":  database,
		"timestamp": time.Now().UTC(),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, status, body)
}
