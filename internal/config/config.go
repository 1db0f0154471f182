package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"tweet-relay/internal/twitter"
)

const (
	// APIv2 posts through the /2/tweets endpoint
	APIv2 = "2"

	// APIv1 posts through the legacy statuses/update endpoint
	APIv1 = "1.1"
)

// Credentials are the Twitter API secrets the relay posts with. All five are
// required for the process to start.
type Credentials struct {
	BearerToken       string `env:"TWITTER_BEARER_TOKEN"`
	ConsumerKey       string `env:"TWITTER_CONSUMER_KEY"`
	ConsumerSecret    string `env:"TWITTER_CONSUMER_SECRET"`
	AccessToken       string `env:"TWITTER_ACCESS_TOKEN"`
	AccessTokenSecret string `env:"TWITTER_ACCESS_TOKEN_SECRET"`
}

// Config is built once at startup and handed to the components that need it.
// Nothing mutates it afterwards.
type Config struct {
	Credentials Credentials

	APIVersion string `env:"TWITTER_API_VERSION" envDefault:"2" validate:"oneof=2 1.1"`

	APIURL string `env:"TWITTER_API_URL" envDefault:"https://api.twitter.com" validate:"required,url"`

	Addr string `env:"RELAY_ADDR" envDefault:":5000" validate:"required"`

	// LogDir is the directory of the daily log file. An empty value only
	// logs to stderr.
	LogDir string `env:"RELAY_LOG_DIR" envDefault:"logs"`

	LogLevel string `env:"RELAY_LOG_LEVEL" envDefault:"debug" validate:"oneof=debug info warn error"`

	// PostTimeout bounds a single post, rate limit waits included. Zero
	// means no deadline.
	PostTimeout time.Duration `env:"RELAY_POST_TIMEOUT" envDefault:"0s" validate:"gte=0"`

	WaitOnRateLimit bool `env:"RELAY_WAIT_ON_RATE_LIMIT" envDefault:"true"`

	// RateLimitMaxWait caps a single rate limit wait. Zero waits for as long
	// as the platform asks.
	RateLimitMaxWait time.Duration `env:"RELAY_RATE_LIMIT_MAX_WAIT" envDefault:"0s" validate:"gte=0"`

	MetricsEnabled bool `env:"RELAY_METRICS_ENABLED" envDefault:"true"`

	ShutdownTimeout time.Duration `env:"RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s" validate:"gt=0"`
}

// Override changes a setting read from the environment, e.g. from a command
// line flag. Overrides run before validation.
type Override func(*Config)

// Load reads the config from the environment, applies the overrides and
// validates the result
func Load(overrides ...Override) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("unable to parse environment: %w", err)
	}

	for _, o := range overrides {
		o(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// TwitterCredentials returns the credentials in the shape the posting
// clients take
func (c *Config) TwitterCredentials() twitter.Credentials {
	return twitter.Credentials{
		BearerToken:       c.Credentials.BearerToken,
		ConsumerKey:       c.Credentials.ConsumerKey,
		ConsumerSecret:    c.Credentials.ConsumerSecret,
		AccessToken:       c.Credentials.AccessToken,
		AccessTokenSecret: c.Credentials.AccessTokenSecret,
	}
}

// Validate reports every missing credential and every invalid setting
func (c *Config) Validate() error {
	var err error

	if missing := c.Credentials.missing(); len(missing) > 0 {
		err = multierr.Append(err, fmt.Errorf(
			"missing (%d) Twitter API credentials in environment variables: %s",
			len(missing),
			strings.Join(missing, ","),
		))
	}

	if verr := validator.New().Struct(c); verr != nil {
		err = multierr.Append(err, fmt.Errorf("invalid configuration: %w", verr))
	}

	return err
}

func (c Credentials) missing() []string {
	var missing []string

	for _, tc := range []struct {
		env string
		chk func() bool
	}{
		{
			env: "TWITTER_BEARER_TOKEN",
			chk: func() bool { return c.BearerToken != "" },
		},
		{
			env: "TWITTER_CONSUMER_KEY",
			chk: func() bool { return c.ConsumerKey != "" },
		},
		{
			env: "TWITTER_CONSUMER_SECRET",
			chk: func() bool { return c.ConsumerSecret != "" },
		},
		{
			env: "TWITTER_ACCESS_TOKEN",
			chk: func() bool { return c.AccessToken != "" },
		},
		{
			env: "TWITTER_ACCESS_TOKEN_SECRET",
			chk: func() bool { return c.AccessTokenSecret != "" },
		},
	} {
		if !tc.chk() {
			missing = append(missing, tc.env)
		}
	}

	return missing
}
