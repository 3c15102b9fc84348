package http

import (
	"encoding/json"
	"net/http"
)

// responseEnvelope shapes non-auth success bodies. The auth endpoints write
// their DTOs directly; everything else wraps the payload so object and list
// responses look the same to clients.
type responseEnvelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// errorEnvelope is the single error body shape. Field casing follows the
// camelCase request and response types of the application layer.
type errorEnvelope struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		httpLogger().Error("encode response body",
			"operation", "write_json",
			"outcome", "failure",
			"error", err.Error(),
		)
	}
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, responseEnvelope{Data: data})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, responseEnvelope{Message: message})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorEnvelope{ErrorCode: code, Message: message})
}
