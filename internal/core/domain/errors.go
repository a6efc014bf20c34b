package domain

import (
	"errors"
	"time"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates bad input shape or size. Never retried internally.
	ErrValidation = errors.New("validation error")

	// ErrPayloadTooLarge indicates the request body exceeded the configured limit
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrExcluded indicates the candidate matched an exclusion rule
	ErrExcluded = errors.New("excluded by rule")

	// ErrBackendUnavailable indicates the embedding process could not be reached
	// after the bounded retry window
	ErrBackendUnavailable = errors.New("embedding backend unavailable")

	// ErrConfiguration indicates a fatal version skew such as an embedding
	// dimension mismatch or a corrupt persisted vector
	ErrConfiguration = errors.New("configuration error")

	// ErrNotReady indicates the engine is still initializing
	ErrNotReady = errors.New("engine not ready")

	// ErrEngineFailed indicates the engine failed to initialize and refuses work
	ErrEngineFailed = errors.New("engine failed")

	// ErrStorage indicates a durable store I/O failure
	ErrStorage = errors.New("storage error")
)

// Error codes returned to API clients
const (
	CodeValidation         = "validation_error"
	CodePayloadTooLarge    = "payload_too_large"
	CodeExcluded           = "excluded"
	CodeNotFound           = "not_found"
	CodeBackendUnavailable = "backend_unavailable"
	CodeConfiguration      = "configuration_error"
	CodeNotReady           = "not_ready"
	CodeEngineFailed       = "engine_failed"
	CodeStorage            = "storage_error"
	CodeInternal           = "internal_error"
)

// ErrorCode maps an error to a stable machine-readable code.
// ErrPayloadTooLarge is checked before ErrValidation so the size case stays distinct.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPayloadTooLarge):
		return CodePayloadTooLarge
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrExcluded):
		return CodeExcluded
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrNotReady):
		return CodeNotReady
	case errors.Is(err, ErrEngineFailed):
		return CodeEngineFailed
	case errors.Is(err, ErrBackendUnavailable):
		return CodeBackendUnavailable
	case errors.Is(err, ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, ErrStorage):
		return CodeStorage
	default:
		return CodeInternal
	}
}

// IsTransient reports whether the caller may safely retry the whole operation.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNotReady) || errors.Is(err, ErrBackendUnavailable)
}

// RetryAfter returns the suggested retry delay for transient errors, or zero.
func RetryAfter(err error) time.Duration {
	switch {
	case errors.Is(err, ErrNotReady):
		return 2 * time.Second
	case errors.Is(err, ErrBackendUnavailable):
		return 10 * time.Second
	default:
		return 0
	}
}
