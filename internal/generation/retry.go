package generation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jonathan/fitness-planner/internal/llm"
)

// Policy controls WithRetry.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// Backoff is the first delay after a retryable transport failure; it doubles each time.
	Backoff time.Duration
	// MaxBackoff caps the delay.
	MaxBackoff time.Duration
	// OnAttempt is called after every failed attempt.
	OnAttempt func(Attempt)
}

// Attempt describes a failed attempt.
type Attempt struct {
	Stage  string
	Number int
	Err    error
	// Delay before the next attempt; zero for content retries and final failures.
	Delay time.Duration
	Final bool
}

// DefaultPolicy is used for the blueprint and detail stages.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Backoff: 500 * time.Millisecond, MaxBackoff: 4 * time.Second}
}

// LightPolicy is used for short outputs such as coach notes and hints.
func LightPolicy() Policy {
	p := DefaultPolicy()
	p.MaxAttempts = 2
	return p
}

// WithAttempts returns a copy of p with a different attempt budget.
func (p Policy) WithAttempts(n int) Policy {
	p.MaxAttempts = n
	return p
}

// WithRetry calls fn sequentially until it succeeds or the policy gives up.
//
// Parse, validation and empty-response failures are retried at once.
// Transport failures are retried after an exponential, jittered delay when the
// provider error is transient. Refusals, composition errors and cancellation
// end the loop immediately. The returned error is always a *Error.
func WithRetry[T any](ctx context.Context, stage string, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := p.Backoff

	var last *Error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, contextFailure(stage, err, attempt-1, last)
		}

		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}

		last = asStageError(stage, err)
		last.Attempts = attempt

		retry, delay := decide(last, attempt, maxAttempts, backoff, p.MaxBackoff)
		if p.OnAttempt != nil {
			p.OnAttempt(Attempt{Stage: stage, Number: attempt, Err: last, Delay: delay, Final: !retry})
		}
		if !retry {
			return zero, last
		}

		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return zero, contextFailure(stage, err, attempt, last)
			}
			backoff *= 2
		}
	}

	return zero, last
}

func decide(last *Error, attempt, maxAttempts int, backoff, maxBackoff time.Duration) (bool, time.Duration) {
	if attempt >= maxAttempts {
		return false, 0
	}
	switch {
	case last.Kind.contentRetry():
		return true, 0
	case last.Kind == KindTransport && llm.IsRetryable(last.Cause):
		return true, jitter(capDelay(backoff, maxBackoff))
	default:
		return false, 0
	}
}

func asStageError(stage string, err error) *Error {
	var ge *Error
	if errors.As(err, &ge) {
		copied := *ge
		if copied.Stage == "" {
			copied.Stage = stage
		}
		return &copied
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Stage: stage, Message: "canceled", Cause: err}
	}
	return &Error{Kind: KindTransport, Stage: stage, Message: "stage failed", Cause: err}
}

func contextFailure(stage string, err error, attempts int, last *Error) *Error {
	kind := KindCanceled
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	cause := err
	if last != nil {
		cause = fmt.Errorf("%w (last error: %v)", err, last)
	}
	return &Error{Kind: kind, Stage: stage, Message: "stopped before completion", Attempts: attempts, Cause: cause}
}

func capDelay(d, maxDelay time.Duration) time.Duration {
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}

// jitter spreads d by ±20%.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	delta := float64(d) * 0.2
	return time.Duration(float64(d) - delta + rand.Float64()*2*delta)
}

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
