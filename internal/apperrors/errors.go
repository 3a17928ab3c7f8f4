// Package apperrors holds the error taxonomy shared by stores, the
// moderation engine and the HTTP layer.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the target is not in a state that allows the operation.
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned when the caller's role or identity is not allowed.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned when no valid credential was presented.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation is returned for out-of-range or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrStorage is returned when a backing document cannot be loaded or saved.
	ErrStorage = errors.New("storage failure")
)

// NotFound wraps ErrNotFound with a message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with a message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Forbidden wraps ErrForbidden with a message.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Validation wraps ErrValidation with a message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Storage wraps ErrStorage around the underlying I/O or decode error.
func Storage(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, fmt.Sprintf(format, args...), err)
}

// HTTPStatus maps an error from the taxonomy to its response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text of err without the taxonomy prefix, suitable for
// API responses.
func Message(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrNotFound, ErrConflict, ErrForbidden, ErrUnauthorized, ErrValidation} {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

// LogWithError logs err at error level and returns it wrapped with msg.
func LogWithError(ctx context.Context, log *zap.Logger, msg string, err error, fields ...zap.Field) error {
	if log != nil {
		if ctx != nil {
			if reqID, ok := ctx.Value(RequestIDKey).(string); ok && reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}
		}
		log.Error(msg, append(fields, zap.Error(err))...)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

type contextKey string

// RequestIDKey is the context key the request logger stores the request id under.
const RequestIDKey = contextKey("request_id")
