package ratelimiting

import (
	"context"
	"time"
)

// Each slot holds the time it can next be used
type windowLimiter struct {
	window    time.Duration
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	slots chan time.Time
}

// Allow at most limit operations to finish within any window.
//
// A slot is reused window after the operation that held it finished. Slots are handed
// out in the order they were returned, so waiting callers are served first come first served.
func NewWindowLimitRequestLimiter(
	limit int,
	window time.Duration,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *windowLimiter {
	slots := make(chan time.Time, limit)
	for range limit {
		// Zero time -> the first limit operations run immediately
		slots <- time.Time{}
	}

	return &windowLimiter{
		window:    window,
		nowFunc:   nowFunc,
		afterFunc: afterFunc,
		slots:     slots,
	}
}

func (l *windowLimiter) Limit(ctx context.Context, maxOperationTime time.Duration, operation func()) bool {
	return l.LimitCancelable(ctx, maxOperationTime, func() bool {
		operation()
		return true
	})
}

// Like Limit, but the operation can decline to run by returning false.
// A declined operation does not count against the limit.
func (l *windowLimiter) LimitCancelable(ctx context.Context, maxOperationTime time.Duration, operation func() bool) bool {
	var availableAt time.Time
	select {
	case availableAt = <-l.slots:
	case <-ctx.Done():
		return false
	}

	// Unless the operation runs, the slot goes back unchanged
	releaseAt := availableAt
	defer func() {
		l.slots <- releaseAt
	}()

	wait := availableAt.Sub(l.nowFunc())
	if deadline, ok := ctx.Deadline(); ok {
		if max(wait, 0)+maxOperationTime > deadline.Sub(l.nowFunc()) {
			return false
		}
	}

	if wait > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-l.afterFunc(wait):
		}
	}

	if !operation() {
		return false
	}

	releaseAt = l.nowFunc().Add(l.window)
	return true
}
