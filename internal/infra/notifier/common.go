package notifier

import (
	"errors"
	"fmt"
	"time"

	"pravo-monitor/internal/utils/text"
)

// contextKey avoids collisions with context keys from other packages.
type contextKey string

const requestIDKey contextKey = "request_id"

// RateLimitError is a Bot API 429 with the retry_after hint from the
// response parameters.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError is a non-429 4xx from the Bot API, for example a chat the
// bot was blocked in.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError is a 5xx from the Bot API.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// is429Error extracts a RateLimitError so the sender can honor retry_after
// instead of applying ordinary backoff.
func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr, true
	}
	return nil, false
}

// isRetryableError reports whether a send is worth repeating. Server errors
// and transport failures are; 4xx responses are not, and 429 goes through
// is429Error instead.
func isRetryableError(err error) bool {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return false
	}

	return true
}

// truncateText caps a message at maxLength runes, the unit the Bot API
// limit counts in, appending suffix when the text was cut.
func truncateText(s string, maxLength int, suffix string) string {
	if text.CountRunes(s) <= maxLength {
		return s
	}

	truncateAt := maxLength - text.CountRunes(suffix)
	if truncateAt < 0 {
		truncateAt = 0
	}

	return text.Truncate(s, truncateAt, suffix)
}
