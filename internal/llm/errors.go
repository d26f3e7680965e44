package llm

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable indicates the gateway is unreachable.
	ErrUnavailable = errors.New("llm gateway unavailable")

	// ErrTimeout indicates the LLM request exceeded the configured timeout.
	ErrTimeout = errors.New("llm request timed out")

	// ErrRateLimited indicates the gateway rejected the call with 429.
	ErrRateLimited = errors.New("llm gateway rate limited")

	// ErrServer indicates the gateway answered with a 5xx status.
	ErrServer = errors.New("llm gateway server error")

	// ErrRejected indicates the gateway refused the request (4xx other than 429).
	ErrRejected = errors.New("llm gateway rejected request")

	// ErrInvalidOutput indicates the LLM response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = errors.New("invalid llm output format")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")
)

// GatewayError carries the HTTP details of a failed gateway call. It wraps
// one of the sentinel errors above.
type GatewayError struct {
	StatusCode int
	RetryAfter time.Duration
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%v (status %d)", e.Err, e.StatusCode)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(", retry after %s", e.RetryAfter)
	}
	return msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

// RetryAfter returns the server-provided retry hint carried by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) && gwErr.RetryAfter > 0 {
		return gwErr.RetryAfter, true
	}
	return 0, false
}
