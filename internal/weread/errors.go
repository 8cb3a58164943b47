package weread

import (
	"errors"
	"fmt"
)

// ErrSessionExpired indicates the configured cookie is no longer accepted.
var ErrSessionExpired = errors.New("weread session expired, refresh WEREAD_COOKIE")

// ErrRateLimited indicates the API rate limit was exceeded
var ErrRateLimited = errors.New("weread API rate limit exceeded")

// errcodeSessionExpired is returned in the body of otherwise successful responses.
const errcodeSessionExpired = -2012

// ServerError represents a 5xx error from the WeRead API
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("WeRead server error: HTTP %d", e.StatusCode)
}

// APIError is an application-level error reported in the response body.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("WeRead API error %d: %s", e.Code, e.Message)
}

// Is lets errors.Is match an expired session reported in the body.
func (e *APIError) Is(target error) bool {
	return target == ErrSessionExpired && e.Code == errcodeSessionExpired
}

// IsRetryable reports whether a failed call may succeed when repeated.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}
