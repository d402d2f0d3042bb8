// Package retry runs a fallible operation until it succeeds, waiting a
// fixed delay between attempts. There is no growth, no jitter and, unless
// MaxAttempts is set, no limit.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/selemilka/hivewatch/internal/hwlog"
	"github.com/selemilka/hivewatch/internal/stats"
)

// DefaultDelay is the wait between attempts when Options.Delay is zero.
const DefaultDelay = 2 * time.Second

// Options tunes Forever.
type Options struct {
	// Delay between the end of a failed attempt and the next one.
	Delay time.Duration
	// MaxAttempts caps the number of attempts. Zero retries forever.
	MaxAttempts int
	// Timer overrides the wait timer. Tests use it to observe delays.
	Timer backoff.Timer
	Stats *stats.Stats
	Log   *slog.Logger
}

func (o Options) delay() time.Duration {
	if o.Delay <= 0 {
		return DefaultDelay
	}
	return o.Delay
}

// Forever calls op until it returns nil. It returns nil on success,
// ctx.Err() once ctx is done, or the last error of op when MaxAttempts
// is reached. Every attempt's outcome is logged under name.
func Forever(ctx context.Context, name string, op func(context.Context) error, opts Options) error {
	log := opts.Log
	if log == nil {
		log = hwlog.For("retry")
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(opts.delay())
	if opts.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(opts.MaxAttempts-1))
	}
	b = backoff.WithContext(b, ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		opts.Stats.Attempt(name, err)
		if err == nil {
			log.Debug("attempt succeeded", "operation", name, "attempt", attempt)
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("attempt failed, retrying", "operation", name, "attempt", attempt, "wait", wait, "error", err)
	}

	err := backoff.RetryNotifyWithTimer(operation, b, notify, opts.Timer)
	if err != nil && ctx.Err() == nil {
		log.Error("giving up", "operation", name, "attempts", attempt, "error", err)
	}
	return err
}
