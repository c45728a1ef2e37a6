// internal/app/system/respond/respond.go
//
// Package respond writes the JSON envelope used by every API endpoint:
// successful responses carry {"success":true, ...} and failures carry
// {"success":false,"error":...}.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 envelope. Extra key/value pairs from payload are merged
// beside "success".
func OK(w http.ResponseWriter, payload map[string]any) {
	Success(w, http.StatusOK, payload)
}

// Success writes a success envelope with the given status.
func Success(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	JSON(w, status, body)
}

// Error writes a failure envelope with a caller-safe message.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]any{"success": false, "error": msg})
}

// Logger pairs envelope writing with structured logging for server-side
// failures so handlers stay one-liners.
type Logger struct {
	Log *zap.Logger
}

// NewLogger builds a Logger; a nil zap logger falls back to zap.NewNop.
func NewLogger(log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{Log: log}
}

// ServerError logs err with request context and answers 500 with a generic
// message. Internal details never reach the client.
func (l *Logger) ServerError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	l.Log.Error("request failed",
		zap.String("operation", operation),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	Error(w, http.StatusInternalServerError, "Error interno del servidor")
}

// BadRequest answers 400 with the given message.
func (l *Logger) BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, msg)
}

// NotFound answers 404 with the given message.
func (l *Logger) NotFound(w http.ResponseWriter, msg string) {
	Error(w, http.StatusNotFound, msg)
}

// Conflict answers 409 with the given message.
func (l *Logger) Conflict(w http.ResponseWriter, msg string) {
	Error(w, http.StatusConflict, msg)
}
