package twitter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// withRateLimitWait runs post and, for as long as it is rate limited and the
// options allow it, sleeps until the window resets and runs it again.
func (o *options) withRateLimitWait(ctx context.Context, logger *zap.Logger, post func() error) error {
	for {
		err := post()

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.RateLimited() || !o.waitOnRateLimit {
			return err
		}

		if apiErr.Reset.IsZero() {
			logger.Warn("rate limited without a reset time, not waiting")
			return err
		}

		// one extra second, the reset is only second precise
		wait := apiErr.Reset.Sub(o.now()) + time.Second
		if wait < 0 {
			wait = 0
		}

		if o.maxWait > 0 && wait > o.maxWait {
			const msg = "rate limit reset exceeds max wait"
			logger.Error(msg, zap.Duration("wait", wait), zap.Duration("maxWait", o.maxWait))
			return fmt.Errorf("%w (reset in %s exceeds max wait of %s)", err, wait.Round(time.Second), o.maxWait)
		}

		logger.Warn(
			"rate limit, sleeping until reset",
			zap.Time("reset", apiErr.Reset),
			zap.Duration("wait", wait),
		)

		if err := o.sleep(ctx, wait); err != nil {
			const msg = "rate limit wait interrupted"
			logger.Error(msg, zap.Error(err))
			return fmt.Errorf(msg+": %w", err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
