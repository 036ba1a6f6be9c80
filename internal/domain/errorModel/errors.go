package errorModel

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest marks permanent input problems: fix the request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound is returned when a notebook, source or job does not exist.
	ErrNotFound = errors.New("not found")
	// ErrProviderFailure marks transport, quota or malformed-response failures of a generation provider.
	ErrProviderFailure = errors.New("generation provider failure")
	// ErrNotConfigured marks a missing optional collaborator: fix the configuration.
	ErrNotConfigured = errors.New("not configured")
	// ErrTooManySlides is returned before any image call when a deck exceeds the slide cap.
	ErrTooManySlides = errors.New("too many slides")
)

func InvalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func ProviderFailure(provider string, err error) error {
	return fmt.Errorf("%w (%s): %w", ErrProviderFailure, provider, err)
}

func NotConfigured(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotConfigured)
}

// Classify maps an error to the HTTP code and retry hint reported to clients.
func Classify(err error) (int, bool) {
	switch {
	case err == nil:
		return http.StatusOK, false
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrTooManySlides):
		return http.StatusBadRequest, false
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, false
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable, false
	case errors.Is(err, ErrProviderFailure):
		return http.StatusBadGateway, true
	default:
		return http.StatusInternalServerError, true
	}
}
