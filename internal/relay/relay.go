package relay

import "unicode/utf8"

const (
	// StatusURLPrefix is the canonical status link a tweet id is appended to
	StatusURLPrefix = "https://twitter.com/user/status/"

	// HealthStatus and HealthMessage make up the fixed health check body
	HealthStatus  = "ok"
	HealthMessage = "Twitter server is running"

	previewLen = 50
)

// PostRequest is the body accepted by the post tweet route
type PostRequest struct {
	// TweetContent is the text to post. It is forwarded as is, without
	// trimming.
	TweetContent string `json:"tweet_content" validate:"required"`
}

// PostResult is the outcome of a post tweet request. On success TweetID and
// TweetURL are set, otherwise Error carries the failure message.
type PostResult struct {
	Success  bool   `json:"success"`
	TweetID  string `json:"tweet_id,omitempty"`
	TweetURL string `json:"tweet_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HealthResponse is the body returned by the health route
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Succeeded is the result of a created tweet
func Succeeded(tweetID string) PostResult {
	return PostResult{
		Success:  true,
		TweetID:  tweetID,
		TweetURL: StatusURL(tweetID),
	}
}

// Failed is the result of a rejected or failed post, carrying the error message
func Failed(err error) PostResult {
	return PostResult{
		Success: false,
		Error:   err.Error(),
	}
}

// Healthy is the fixed health check body
func Healthy() HealthResponse {
	return HealthResponse{
		Status:  HealthStatus,
		Message: HealthMessage,
	}
}

// StatusURL builds the public link of the tweet with the given id
func StatusURL(tweetID string) string {
	return StatusURLPrefix + tweetID
}

// Preview returns the first 50 runes of the content followed by an
// ellipsis, used when logging the content of a request.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLen {
		return content + "..."
	}

	return string([]rune(content)[:previewLen]) + "..."
}
