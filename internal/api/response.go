package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"fitinsight/internal/service"
	"fitinsight/internal/store"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      int    `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

// SuccessResponse represents a successful API response with data.
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// success writes a successful JSON response.
func success(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, status int, err error, retryable bool) {
	writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   err.Error(),
		Code:      status,
		Retryable: retryable,
	})
}

// statusFor maps a service error onto an HTTP status
func statusFor(err error) (status int, retryable bool) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, false
	}
	if errors.Is(err, store.ErrGoalNotFound) || errors.Is(err, store.ErrSessionNotFound) {
		return http.StatusNotFound, false
	}
	var ferr *service.FetchError
	if errors.As(err, &ferr) {
		if ferr.Retryable {
			return http.StatusServiceUnavailable, true
		}
		return http.StatusBadGateway, false
	}
	return http.StatusInternalServerError, false
}
