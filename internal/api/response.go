package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kolmobuild/kolmo/internal/fact"
)

// WriteJSON writes a JSON response with the given status code.
// Uses buffer-first strategy to ensure headers are only sent after successful encoding.
// This allows returning a proper 500 error if JSON encoding fails.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff") // Prevent MIME type sniffing attacks
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected
		slog.Debug("failed to write response body", "error", err)
	}
}

// errorBody is the wire shape of an API error.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "code", code, "message", message)
	}
	WriteJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// writeDomainError maps service errors to HTTP status codes:
// ErrNotFound 404, ErrConflict 409, ErrTimeout 504, anything else 500.
func writeDomainError(w http.ResponseWriter, err error, logger *slog.Logger) {
	switch {
	case errors.Is(err, fact.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error(), logger)
	case errors.Is(err, fact.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", err.Error(), logger)
	case errors.Is(err, fact.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "timeout", "backend query timed out", logger)
	default:
		logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error", logger)
	}
}
