// Package respond renders the uniform response envelope shared by every
// endpoint and translates the error taxonomy into it at the request boundary.
//
// Successful operations return {data, message, path, statusCode}; failures
// return {statusCode, message, path, errors?, timestamp}. The envelope shape
// is part of the external contract and must stay stable across endpoints.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mediavault/backend/internal/apperrors"
	"github.com/mediavault/backend/internal/logging"
)

// Envelope is the success payload wrapper.
type Envelope struct {
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Path       string `json:"path"`
	StatusCode int    `json:"statusCode"`
}

// ErrorDetail carries one diagnostic message inside a failure envelope.
type ErrorDetail struct {
	Message string `json:"message"`
}

// Failure is the error payload wrapper.
type Failure struct {
	StatusCode int           `json:"statusCode"`
	Message    string        `json:"message"`
	Path       string        `json:"path"`
	Errors     []ErrorDetail `json:"errors,omitempty"`
	Timestamp  string        `json:"timestamp"`
}

// Success writes a success envelope with the provided status code.
func Success(ctx context.Context, w http.ResponseWriter, path string, status int, message string, data any) {
	writeJSON(ctx, w, status, Envelope{
		Data:       data,
		Message:    message,
		Path:       path,
		StatusCode: status,
	})
}

// Fail writes a failure envelope with the provided status code and details.
func Fail(ctx context.Context, w http.ResponseWriter, path string, status int, message string, details ...ErrorDetail) {
	writeJSON(ctx, w, status, Failure{
		StatusCode: status,
		Message:    message,
		Path:       path,
		Errors:     details,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// Error maps a domain error onto the failure envelope. Unrecognized errors are
// reported as internal server errors with their cause preserved in the details.
func Error(ctx context.Context, w http.ResponseWriter, path string, err error) {
	var (
		forbidden  *apperrors.ForbiddenError
		validation *apperrors.ValidationError
		notFound   *apperrors.NotFoundError
		persist    *apperrors.PersistenceError
	)

	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		Fail(ctx, w, path, http.StatusUnauthorized, "Invalid or missing authentication token")
	case errors.As(err, &forbidden):
		Fail(ctx, w, path, http.StatusForbidden, forbidden.Reason)
	case errors.As(err, &validation):
		Fail(ctx, w, path, http.StatusBadRequest, validation.Message, ErrorDetail{Message: validation.Message})
	case errors.As(err, &notFound):
		Fail(ctx, w, path, http.StatusNotFound, notFound.Error())
	case errors.As(err, &persist):
		logging.FromContext(ctx).Error("persistence failure", "op", persist.Op, "error", persist.Cause)
		Fail(ctx, w, path, http.StatusInternalServerError, "Internal server error", ErrorDetail{Message: persist.Error()})
	default:
		logging.FromContext(ctx).Error("unhandled error", "error", err)
		Fail(ctx, w, path, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status)
	}
}
