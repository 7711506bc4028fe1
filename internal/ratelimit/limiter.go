// Package ratelimit provides sliding-window tokens-per-minute budgeting for
// outbound model requests. The limiter never sleeps; it reports how long the
// caller should wait, leaving scheduling to the caller.
package ratelimit

import (
	"sync"
	"time"
)

const window = time.Minute

// Decision is the outcome of a reservation attempt. When OK is false, Wait
// holds the duration after which a retry should succeed.
type Decision struct {
	OK   bool
	Wait time.Duration
}

type usage struct {
	at     time.Time
	tokens int
}

// Limiter tracks token consumption within a trailing one-minute window and
// enforces a minimum interval between requests.
type Limiter struct {
	mu          sync.Mutex
	limit       int
	minInterval time.Duration
	now         func() time.Time

	entries     []usage
	lastRequest time.Time
	total       int
}

// New builds a limiter with the given tokens-per-minute budget and minimum
// spacing between granted requests.
func New(tokensPerMinute int, minInterval time.Duration) *Limiter {
	return &Limiter{
		limit:       tokensPerMinute,
		minInterval: minInterval,
		now:         time.Now,
	}
}

// Reserve attempts to claim estimated tokens against the window. On success
// the tokens are recorded immediately and the request may proceed. Otherwise
// the returned wait is the time until enough budget frees up, or until the
// minimum interval elapses, whichever is longer.
func (l *Limiter) Reserve(estimated int) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	var wait time.Duration
	if !l.lastRequest.IsZero() {
		if since := now.Sub(l.lastRequest); since < l.minInterval {
			wait = l.minInterval - since
		}
	}

	if l.windowTokens()+estimated > l.limit {
		if w := l.budgetWait(now); w > wait {
			wait = w
		}
	}

	if wait > 0 {
		return Decision{Wait: wait}
	}

	l.entries = append(l.entries, usage{at: now, tokens: estimated})
	l.total += estimated
	l.lastRequest = now
	return Decision{OK: true}
}

// Record accounts tokens observed after a request completed, for example
// completion tokens not covered by the reservation estimate.
func (l *Limiter) Record(tokens int) {
	if tokens <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	l.entries = append(l.entries, usage{at: now, tokens: tokens})
	l.total += tokens
}

// WindowTokens returns tokens consumed within the trailing window.
func (l *Limiter) WindowTokens() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return l.windowTokens()
}

// TotalTokens returns cumulative tokens recorded since construction.
func (l *Limiter) TotalTokens() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.total
}

// Limit returns the configured tokens-per-minute budget.
func (l *Limiter) Limit() int {
	return l.limit
}

func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(l.entries) && !l.entries[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		l.entries = append(l.entries[:0], l.entries[i:]...)
	}
}

func (l *Limiter) windowTokens() int {
	sum := 0
	for _, e := range l.entries {
		sum += e.tokens
	}
	return sum
}

// budgetWait is the time until the oldest recorded usage ages out of the
// window. Entries are appended in time order, so the head is the oldest.
func (l *Limiter) budgetWait(now time.Time) time.Duration {
	if len(l.entries) == 0 {
		return 0
	}
	w := l.entries[0].at.Add(window).Sub(now)
	if w < 0 {
		return 0
	}
	return w
}
