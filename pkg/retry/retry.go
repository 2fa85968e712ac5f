// Package retry wraps remote calls with bounded retry on rate-limit
// rejections. Non-retryable errors propagate on first occurrence.
package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"echodub/log"
	apperrors "echodub/pkg/errors"
)

const (
	// fallback delay when the provider did not communicate a Retry-After
	defaultRetryDelay = 5 * time.Second
	// added on top of any provider hint so we do not knock on the door the
	// instant the window reopens
	safetyMargin = time.Second
)

// Do invokes operation, retrying up to maxRetries additional times when the
// failure is a rate-limit/quota condition. The sleep between attempts is the
// provider-advertised delay when present, otherwise a fixed fallback, plus a
// safety margin. Any other failure propagates immediately.
func Do[T any](ctx context.Context, operation func(ctx context.Context) (T, error), maxRetries int) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		result, err := operation(ctx)
		if err == nil {
			return result, nil
		}

		if !apperrors.IsRateLimit(err) {
			return zero, err
		}

		if attempt >= maxRetries {
			return zero, apperrors.Wrap(apperrors.CodeRetriesExhausted,
				fmt.Sprintf("retries exhausted after %d attempts", attempt+1), err)
		}

		delay := apperrors.RetryAfterHint(err)
		if delay <= 0 {
			delay = defaultRetryDelay
		}
		delay += safetyMargin

		if logger := log.GetLogger(); logger != nil {
			logger.Warn("rate limited, backing off",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", maxRetries),
				zap.Duration("delay", delay),
				zap.Error(err))
		}

		if err := sleepFn(ctx, delay); err != nil {
			return zero, err
		}
	}
}

var sleepFn = sleep

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
