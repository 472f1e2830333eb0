// Package ratelimit implements a keyed fixed-window request counter guarding
// the scheduling API. Window state lives behind the Store interface so a
// single-process deployment can run on the in-memory table while multi-process
// deployments share a Redis-backed one.
package ratelimit

import (
	"context"
	"time"

	"github.com/medoffice/scheduling/internal/clock"
)

// Entry is one client's current window: how many requests were counted and
// when the window ends.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Store holds per-key window state. Incr must be atomic per key: the
// read-check-write of a window is one indivisible step so concurrent hits on
// the same key never undercount. An expired window is replaced, not
// incremented.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (Entry, error)
	Delete(ctx context.Context, key string) error
}

// Result reports the admission decision plus the quota state exposed in
// response headers.
type Result struct {
	Allowed           bool
	Limit             int
	Remaining         int
	ResetAt           time.Time
	RetryAfterSeconds int
}

type Limiter struct {
	store  Store
	max    int
	window time.Duration
	clock  clock.Clock
}

func NewLimiter(store Store, max int, window time.Duration, clk clock.Clock) *Limiter {
	if clk == nil {
		clk = clock.System()
	}
	return &Limiter{
		store:  store,
		max:    max,
		window: window,
		clock:  clk,
	}
}

// Allow counts one request against key and decides admission. Requests over
// the limit are still counted; they extend nothing, the window resets only by
// expiry.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	entry, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Allowed: entry.Count <= l.max,
		Limit:   l.max,
		ResetAt: entry.ResetAt,
	}

	if remaining := l.max - entry.Count; remaining > 0 {
		res.Remaining = remaining
	}

	if !res.Allowed {
		wait := entry.ResetAt.Sub(l.clock.Now())
		if wait < 0 {
			wait = 0
		}
		res.RetryAfterSeconds = int((wait + time.Second - 1) / time.Second)
		if res.RetryAfterSeconds < 1 {
			res.RetryAfterSeconds = 1
		}
	}

	return res, nil
}
