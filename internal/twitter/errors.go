package twitter

import (
	"net/http"
	"strconv"
	"time"
)

// APIError is a non-2xx answer from the platform
type APIError struct {
	StatusCode int           `json:"-"`
	Title      string        `json:"title"`
	Detail     string        `json:"detail"`
	Errors     []ErrorDetail `json:"errors"`

	// Reset is when the rate limit window resets, only set on 429s
	Reset time.Time `json:"-"`

	// Body is the raw response body, used when nothing else describes the
	// error
	Body string `json:"-"`
}

// ErrorDetail is one entry of the errors list in an error body
type ErrorDetail struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	status := strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)

	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if msg == "" && len(e.Errors) > 0 {
		msg = e.Errors[0].Message
	}
	if msg == "" {
		msg = e.Body
	}

	if msg == "" {
		return status
	}

	return status + ": " + msg
}

// RateLimited reports whether the platform rejected the request for
// exceeding a rate limit
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func parseReset(h http.Header) time.Time {
	epoch, err := strconv.ParseInt(h.Get(rateLimitResetHeader), 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.Unix(epoch, 0)
}
