// Package apierr provides shared error sentinels and retry infrastructure
// for the external transcription and text-generation services. All
// provider-specific errors are classified into these sentinels at the
// adapter boundary.
//
// Adapters map HTTP status codes using fmt.Errorf("%s: %w", msg, sentinel)
// and wrap the result in a ServiceCallError naming the service.
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import (
	"errors"
	"fmt"
)

// Sentinel errors for service interaction failures.
var (
	// ErrServiceCall matches every ServiceCallError.
	ErrServiceCall = errors.New("service call failed")

	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out, either on the server side or
	// because the caller-imposed deadline expired.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrServerError indicates a 5xx response (retryable).
	ErrServerError = errors.New("server error")
)

// ServiceCallError reports a failed request to an external service.
type ServiceCallError struct {
	Service string // "transcription" or "generation"
	Err     error
}

func (e *ServiceCallError) Error() string {
	return fmt.Sprintf("%s service: %v", e.Service, e.Err)
}

func (e *ServiceCallError) Unwrap() error { return e.Err }

// Is reports ErrServiceCall as a match so callers need not know the concrete type.
func (e *ServiceCallError) Is(target error) bool {
	return target == ErrServiceCall
}

// Wrap returns err as a ServiceCallError for service. A nil err stays nil.
func Wrap(service string, err error) error {
	if err == nil {
		return nil
	}
	var sce *ServiceCallError
	if errors.As(err, &sce) {
		return err
	}
	return &ServiceCallError{Service: service, Err: err}
}

// IsRetryable reports whether err is transient: rate limits, timeouts and
// server errors are retried; quota, auth and bad requests are not.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, ErrAuthFailed),
		errors.Is(err, ErrBadRequest):
		return false
	case errors.Is(err, ErrRateLimit),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrServerError):
		return true
	}
	return false
}
