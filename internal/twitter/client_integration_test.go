//go:build integration
// +build integration

package twitter

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// posts a real tweet with the account in the environment
func Test_Client_CreatePost_Integration(t *testing.T) {
	creds := Credentials{
		BearerToken:       os.Getenv("TWITTER_BEARER_TOKEN"),
		ConsumerKey:       os.Getenv("TWITTER_CONSUMER_KEY"),
		ConsumerSecret:    os.Getenv("TWITTER_CONSUMER_SECRET"),
		AccessToken:       os.Getenv("TWITTER_ACCESS_TOKEN"),
		AccessTokenSecret: os.Getenv("TWITTER_ACCESS_TOKEN_SECRET"),
	}

	for _, tc := range []struct {
		desc   string
		poster func(t *testing.T) Poster
	}{
		{
			desc: "v2",
			poster: func(t *testing.T) Poster {
				c, err := NewClient(zap.NewNop(), creds, WithRateLimitWait(true, time.Minute))
				require.NoError(t, err)
				return c
			},
		},
		{
			desc: "v1.1",
			poster: func(t *testing.T) Poster {
				c, err := NewLegacyClient(zap.NewNop(), creds, WithRateLimitWait(true, time.Minute))
				require.NoError(t, err)
				return c
			},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			text := "relay integration test " + tc.desc + " " + time.Now().UTC().Format(time.RFC3339Nano)
			post, err := tc.poster(t).CreatePost(ctx, text)
			require.NoError(t, err)
			require.NotNil(t, post)
			assert.NotEmpty(t, post.ID)
		})

		// dont hammer the api
		time.Sleep(time.Second)
	}
}
