package api

import (
	"net/http"
)

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// WriteError writes the error envelope, tagged with the request id that
// RequestIDMiddleware stored on r.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	WriteJSON(w, status, ErrorResponse{Error: APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: RequestID(r.Context()),
	}})
}

func BadRequest(w http.ResponseWriter, r *http.Request, code, message string, details map[string]any) {
	WriteError(w, r, http.StatusBadRequest, code, message, details)
}

func NotFound(w http.ResponseWriter, r *http.Request, code, message string) {
	WriteError(w, r, http.StatusNotFound, code, message, nil)
}

func Conflict(w http.ResponseWriter, r *http.Request, code, message string, details map[string]any) {
	WriteError(w, r, http.StatusConflict, code, message, details)
}

func Unavailable(w http.ResponseWriter, r *http.Request, code, message string) {
	WriteError(w, r, http.StatusServiceUnavailable, code, message, nil)
}

// Internal hides the cause; callers log it.
func Internal(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal server error", nil)
}
