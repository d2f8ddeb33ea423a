package server

import (
	"encoding/json"
	"net/http"

	"github.com/warden-ai/warden/internal/operr"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodePermissionDenied = "PERMISSION_DENIED"
	ErrCodeCancelled        = "CANCELLED"
	ErrCodeIOError          = "IO_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeSuccess writes a success response.
func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeOperationError maps an operation error to its HTTP response.
func writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case operr.IsValidation(err):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case operr.IsPermissionDenied(err):
		writeError(w, http.StatusForbidden, ErrCodePermissionDenied, err.Error())
	case operr.IsNotFound(err):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case operr.IsCancelled(err):
		writeError(w, http.StatusConflict, ErrCodeCancelled, err.Error())
	case operr.IsIO(err):
		writeError(w, http.StatusInternalServerError, ErrCodeIOError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}
