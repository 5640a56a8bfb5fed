package arena

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// registrationFailedError signals the coordinator rejected the submission
// (bad team hash, duplicate name, closed track). It is permanent: workers
// must stop instead of retrying.
type registrationFailedError struct{ msg string }

func (e registrationFailedError) Error() string {
	return "model registration failed: " + e.msg
}

// ErrRegistrationFailed constructs a permanent registration error.
func ErrRegistrationFailed(msg string) error { return registrationFailedError{msg: msg} }

// IsRegistrationFailed reports whether err means the coordinator refused
// the registration outright.
func IsRegistrationFailed(err error) bool {
	_, ok := err.(registrationFailedError)
	return ok
}

// RateLimitError is returned when the coordinator responds with HTTP 429.
// It carries an optional RetryAfter duration parsed from the Retry-After
// header.
type RateLimitError struct {
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %s", e.RetryAfter, e.Body)
	}
	return fmt.Sprintf("rate limited: %s", e.Body)
}

// ParseRetryAfter parses the Retry-After header value as either seconds
// (integer) or an HTTP-date. Returns zero if unparseable or in the past.
func ParseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
