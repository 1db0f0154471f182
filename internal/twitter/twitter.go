package twitter

import (
	"context"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
)

const (
	// APIURL is the base url of the Twitter api
	APIURL = "https://api.twitter.com"

	// TweetsPath is the v2 resource tweets are created on
	TweetsPath = "/2/tweets"

	httpTimeout = time.Second * 30

	rateLimitResetHeader = "X-Rate-Limit-Reset"
)

// Poster creates posts on the platform. CreatePost blocks for the network
// round trip and, when the client waits on rate limits, until the rate limit
// window resets. Bound it with a context deadline.
type Poster interface {
	CreatePost(ctx context.Context, text string) (*Post, error)
}

// Post is a created tweet
type Post struct {
	ID string
}

// Credentials stores all of our access/consumer tokens and secret keys
// needed for authentication against the twitter REST API.
type Credentials struct {
	BearerToken       string
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

type tweetPayload struct {
	Text string `json:"text"`
}

type tweetResp struct {
	TweetData tweetData `json:"data"`
}

type tweetData struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Option configures a posting client
type Option func(*options)

type options struct {
	baseURL         string
	httpClient      *http.Client
	waitOnRateLimit bool
	maxWait         time.Duration
	sleep           func(ctx context.Context, d time.Duration) error
	now             func() time.Time
}

func defaultOptions() *options {
	return &options{
		baseURL:         APIURL,
		httpClient:      &http.Client{Timeout: httpTimeout},
		waitOnRateLimit: true,
		sleep:           sleepCtx,
		now:             time.Now,
	}
}

// WithBaseURL points the v2 client at another host, e.g. a test server
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient sets the client whose transport the signed requests are sent
// through
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRateLimitWait controls whether a rate limited post sleeps until the
// window resets and is then retried. A positive maxWait makes the post fail
// instead when the reset is further away than maxWait.
func WithRateLimitWait(wait bool, maxWait time.Duration) Option {
	return func(o *options) {
		o.waitOnRateLimit = wait
		o.maxWait = maxWait
	}
}

// authTwitter returns an http client that signs every request with OAuth1
// user context. The base client's transport and timeout are kept.
func authTwitter(creds Credentials, base *http.Client) *http.Client {
	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)

	ctx := context.WithValue(oauth1.NoContext, oauth1.HTTPClient, base)
	c := config.Client(ctx, token)
	c.Timeout = base.Timeout

	return c
}
