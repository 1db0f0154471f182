package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxErrorBodyBytes = 64 * 1024

// Client posts tweets through the v2 api. Requests are signed with OAuth1
// user context.
type Client struct {
	logger *zap.Logger
	c      *http.Client
	opts   *options
}

// NewClient returns a v2 posting client. The client has the following
// dependencies:
//
// logger - for structured logging
// creds - consumer key/secret and access token/secret of the posting account
//
// Usage Example:
//  c, err := NewClient(logger, creds, WithRateLimitWait(true, time.Minute))
//  if err != nil { // handle err }
//
//  post, err := c.CreatePost(ctx, "hello world")
//  if err != nil { // handle err }
func NewClient(logger *zap.Logger, creds Credentials, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if err := validate(logger, creds, o); err != nil {
		return nil, err
	}

	return &Client{
		logger: logger,
		c:      authTwitter(creds, o.httpClient),
		opts:   o,
	}, nil
}

// CreatePost creates a tweet with the given text and returns its id
func (c *Client) CreatePost(ctx context.Context, text string) (*Post, error) {
	var post *Post
	err := c.opts.withRateLimitWait(ctx, c.logger, func() error {
		var err error
		post, err = c.createTweet(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (c *Client) createTweet(ctx context.Context, text string) (*Post, error) {
	body, err := json.Marshal(tweetPayload{Text: text})
	if err != nil {
		const msg = "unable to marshal tweet body"
		c.logger.Error(msg, zap.Error(err))
		return nil, fmt.Errorf(msg+": %w", err)
	}

	path := strings.TrimSuffix(c.opts.baseURL, "/") + TweetsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		const msg = "unable to create request"
		c.logger.Error(msg, zap.Error(err))
		return nil, fmt.Errorf(msg+": %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.c.Do(req)
	if err != nil {
		const msg = "unable to post tweet"
		c.logger.Error(msg, zap.Error(err))
		return nil, fmt.Errorf(msg+": %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		c.logger.Error(
			"received non 2xx response",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("body", apiErr.Body),
		)
		return nil, apiErr
	}

	var tr tweetResp
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		const msg = "unable to decode tweet response"
		c.logger.Error(msg, zap.Error(err))
		return nil, fmt.Errorf(msg+": %w", err)
	}

	if tr.TweetData.ID == "" {
		const msg = "tweet response is missing the tweet id"
		c.logger.Error(msg)
		return nil, errors.New(msg)
	}

	return &Post{ID: tr.TweetData.ID}, nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := APIError{
		StatusCode: resp.StatusCode,
		Reset:      parseReset(resp.Header),
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return &apiErr
	}
	apiErr.Body = strings.TrimSpace(string(b))

	// best effort, the raw body is kept when it is not the documented shape
	_ = json.Unmarshal(b, &apiErr)

	return &apiErr
}

func validate(logger *zap.Logger, creds Credentials, o *options) error {
	var missingDeps []string

	for _, tc := range []struct {
		dep string
		chk func() bool
	}{
		{
			dep: "logger",
			chk: func() bool { return logger != nil },
		},
		{
			dep: "consumerKey",
			chk: func() bool { return creds.ConsumerKey != "" },
		},
		{
			dep: "consumerSecret",
			chk: func() bool { return creds.ConsumerSecret != "" },
		},
		{
			dep: "accessToken",
			chk: func() bool { return creds.AccessToken != "" },
		},
		{
			dep: "accessTokenSecret",
			chk: func() bool { return creds.AccessTokenSecret != "" },
		},
		{
			dep: "httpClient",
			chk: func() bool { return o.httpClient != nil },
		},
	} {
		if !tc.chk() {
			missingDeps = append(missingDeps, tc.dep)
		}
	}

	if len(missingDeps) > 0 {
		return fmt.Errorf(
			"unable to initialize twitter client due to (%d) missing dependencies: %s",
			len(missingDeps),
			strings.Join(missingDeps, ","),
		)
	}

	return nil
}
