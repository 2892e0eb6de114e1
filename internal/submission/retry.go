package submission

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/metrics"
	"github.com/sethvargo/go-retry"
)

const defaultMaxAttempts = 5

// Retrier runs external store calls with a fixed attempt ceiling.
type Retrier struct {
	MaxAttempts int
	Delay       time.Duration
	Metrics     *metrics.SubmissionMetrics
	Logger      *logger.Logger
}

func (r Retrier) backoff() retry.Backoff {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	delay := r.Delay
	if delay < 0 {
		delay = 0
	}
	constant := retry.BackoffFunc(func() (time.Duration, bool) { return delay, false })
	return retry.WithMaxRetries(uint64(attempts-1), constant)
}

// Do calls fn until it succeeds, returns a non retryable error or the ceiling
// is reached. Exhausted transient failures surface as dependency errors.
func (r Retrier) Do(ctx context.Context, step string, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, r, step, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for calls that return a value.
func DoValue[T any](ctx context.Context, r Retrier, step string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	v, err := retry.DoValue(ctx, r.backoff(), func(ctx context.Context) (T, error) {
		attempt++
		r.Metrics.IncAttempt(step)
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if r.Logger != nil {
			logCtx := r.Logger.WithFields(ctx, map[string]any{"step": step, "attempt": attempt})
			r.Logger.Error(logCtx, "submission step attempt failed", err)
		}
		if pkgerrors.IsRetryable(err) {
			return v, retry.RetryableError(err)
		}
		return v, err
	})
	if err == nil {
		r.Metrics.StepDone(step)
		return v, nil
	}
	r.Metrics.StepFailed(step)
	if typed := pkgerrors.As(err); typed != nil && !pkgerrors.MetadataFor(typed.Code()).Retryable {
		return v, err
	}
	return v, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s failed after %d attempts", step, attempt))
}
