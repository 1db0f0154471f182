package relay

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Succeeded(t *testing.T) {
	res := Succeeded("12345")

	assert.True(t, res.Success)
	assert.Equal(t, "12345", res.TweetID)
	assert.Equal(t, "https://twitter.com/user/status/12345", res.TweetURL)
	assert.Empty(t, res.Error)
}

func Test_Failed(t *testing.T) {
	res := Failed(errors.New("Forbidden: duplicate content"))

	assert.False(t, res.Success)
	assert.Equal(t, "Forbidden: duplicate content", res.Error)
	assert.Empty(t, res.TweetID)
	assert.Empty(t, res.TweetURL)

	assert.Equal(t, "No tweet content provided", Failed(ErrNoTweetContent).Error)
}

func Test_Preview(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		content string
		want    string
	}{
		{
			desc:    "Short content",
			content: "Hello world",
			want:    "Hello world...",
		},
		{
			desc:    "Truncated to fifty characters",
			content: strings.Repeat("a", 60),
			want:    strings.Repeat("a", 50) + "...",
		},
		{
			desc:    "Multibyte runes are not split",
			content: strings.Repeat("ế", 55),
			want:    strings.Repeat("ế", 50) + "...",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.want, Preview(tc.content))
		})
	}
}

func Test_Healthy(t *testing.T) {
	assert.Equal(t, HealthResponse{Status: "ok", Message: "Twitter server is running"}, Healthy())
}
