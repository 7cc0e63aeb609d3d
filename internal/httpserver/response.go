package httpserver

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the common response envelope.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError is the error payload inside the envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

func sendJSON(w http.ResponseWriter, statusCode int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func sendSuccess(w http.ResponseWriter, statusCode int, data any) {
	sendJSON(w, statusCode, APIResponse{Success: true, Data: data})
}

func sendError(w http.ResponseWriter, statusCode int, code, message string) {
	sendJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

func sendValidationError(w http.ResponseWriter, message, details string) {
	sendJSON(w, http.StatusBadRequest, APIResponse{
		Success: false,
		Error:   &APIError{Code: ErrCodeValidation, Message: message, Details: details},
	})
}

func sendNotFound(w http.ResponseWriter, resource string) {
	sendError(w, http.StatusNotFound, ErrCodeNotFound, resource+" not found")
}

func sendInternalError(w http.ResponseWriter) {
	sendError(w, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}
