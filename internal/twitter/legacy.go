package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gotwitter "github.com/dghubble/go-twitter/twitter"
	"go.uber.org/zap"
)

// LegacyClient posts tweets through the v1.1 statuses/update endpoint. The
// underlying library does not take a context, so a deadline is only
// honoured before each attempt and while waiting on a rate limit. The http
// client timeout bounds a single attempt.
type LegacyClient struct {
	logger *zap.Logger
	tc     *gotwitter.Client
	opts   *options
}

// NewLegacyClient returns a v1.1 posting client. It takes the same
// dependencies as NewClient; WithBaseURL has no effect on it.
func NewLegacyClient(logger *zap.Logger, creds Credentials, opts ...Option) (*LegacyClient, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if err := validate(logger, creds, o); err != nil {
		return nil, err
	}

	return &LegacyClient{
		logger: logger,
		tc:     gotwitter.NewClient(authTwitter(creds, o.httpClient)),
		opts:   o,
	}, nil
}

// CreatePost updates the account's status with the given text
func (c *LegacyClient) CreatePost(ctx context.Context, text string) (*Post, error) {
	var post *Post
	err := c.opts.withRateLimitWait(ctx, c.logger, func() error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("unable to post tweet: %w", err)
		}

		var err error
		post, err = c.updateStatus(text)
		return err
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (c *LegacyClient) updateStatus(text string) (*Post, error) {
	tweet, resp, err := c.tc.Statuses.Update(text, nil)
	if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		apiErr := fromLegacyError(resp, err)
		c.logger.Error(
			"received non 2xx response",
			zap.Int("statusCode", resp.StatusCode),
			zap.Error(err),
		)
		return nil, apiErr
	}

	if err != nil {
		const msg = "unable to post tweet"
		c.logger.Error(msg, zap.Error(err))
		return nil, fmt.Errorf(msg+": %w", err)
	}

	if tweet == nil || tweet.IDStr == "" {
		const msg = "status update response is missing the tweet id"
		c.logger.Error(msg)
		return nil, errors.New(msg)
	}

	return &Post{ID: tweet.IDStr}, nil
}

func fromLegacyError(resp *http.Response, err error) *APIError {
	apiErr := APIError{
		StatusCode: resp.StatusCode,
		Reset:      parseReset(resp.Header),
	}

	switch e := err.(type) {
	case gotwitter.APIError:
		for _, d := range e.Errors {
			apiErr.Errors = append(apiErr.Errors, ErrorDetail{Message: d.Message, Code: d.Code})
		}
	case nil:
	default:
		apiErr.Body = err.Error()
	}

	return &apiErr
}
