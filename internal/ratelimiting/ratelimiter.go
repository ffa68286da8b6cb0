package ratelimiting

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RequestLimiter gates outgoing requests to a remote API
type RequestLimiter interface {
	// Run the operation once the limiter allows it.
	// Returns false without running the operation if ctx is cancelled first, or if
	// the wait plus maxOperationTime would run past the deadline of ctx.
	Limit(ctx context.Context, maxOperationTime time.Duration, operation func()) bool
}

type tokenBucketRequestLimiter struct {
	limiter *rate.Limiter
}

// Allow burstSize requests at once, refilling one token every refillInterval
func NewTokenBucketRequestLimiter(refillInterval time.Duration, burstSize int) *tokenBucketRequestLimiter {
	return &tokenBucketRequestLimiter{
		limiter: rate.NewLimiter(rate.Every(refillInterval), burstSize),
	}
}

func (l *tokenBucketRequestLimiter) Limit(ctx context.Context, maxOperationTime time.Duration, operation func()) bool {
	waitCtx := ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithDeadline(ctx, deadline.Add(-maxOperationTime))
		defer cancel()
	}

	// Fails immediately when the wait would exceed the deadline
	if err := l.limiter.Wait(waitCtx); err != nil {
		return false
	}

	operation()
	return true
}
