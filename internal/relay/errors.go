package relay

// Error is a failure the relay reports to its callers with a fixed message
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNoTweetContent Error = "No tweet content provided"
	ErrInvalidBody    Error = "Invalid request body"
	ErrNotFound       Error = "Not found"
	ErrMethod         Error = "Method not allowed"
	ErrInternal       Error = "Internal server error"
)
