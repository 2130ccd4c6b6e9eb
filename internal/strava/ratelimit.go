package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Strava rate limits:
// - 100 requests per 15 minutes
// - 1000 requests per day
const (
	DefaultShortLimit = 100
	DefaultDailyLimit = 1000
	ShortWindow       = 15 * time.Minute

	// Pacing between consecutive requests, ~6.6 req/s
	DefaultMinInterval = 150 * time.Millisecond
)

// RateLimiter manages Strava API rate limits
type RateLimiter struct {
	mu sync.Mutex

	// 15-minute window
	shortLimit    int
	shortUsage    int
	shortResetsAt time.Time

	// Daily window
	dailyLimit    int
	dailyUsage    int
	dailyResetsAt time.Time

	pacer *rate.Limiter
	now   func() time.Time
}

// NewRateLimiter creates a new rate limiter with Strava's limits
func NewRateLimiter() *RateLimiter {
	return newRateLimiter(DefaultMinInterval, time.Now)
}

func newRateLimiter(minInterval time.Duration, now func() time.Time) *RateLimiter {
	t := now()
	return &RateLimiter{
		shortLimit:    DefaultShortLimit,
		shortResetsAt: t.Add(ShortWindow),
		dailyLimit:    DefaultDailyLimit,
		dailyResetsAt: nextDay(t),
		pacer:         rate.NewLimiter(rate.Every(minInterval), 1),
		now:           now,
	}
}

// Wait blocks until a request can be made without exceeding rate limits
func (r *RateLimiter) Wait(ctx context.Context) error {
	if wait := r.windowWait(); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		r.resetExpired(true)
	}

	if err := r.pacer.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.shortUsage++
	r.dailyUsage++
	r.mu.Unlock()
	return nil
}

// windowWait returns how long to wait for an exhausted window to reset
func (r *RateLimiter) windowWait() time.Duration {
	r.resetExpired(false)

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	switch {
	case r.dailyUsage >= r.dailyLimit:
		return r.dailyResetsAt.Sub(now)
	case r.shortUsage >= r.shortLimit:
		return r.shortResetsAt.Sub(now)
	}
	return 0
}

// resetExpired clears windows whose reset time has passed, or exhausted
// windows when force is set after waiting them out
func (r *RateLimiter) resetExpired(force bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.After(r.shortResetsAt) || (force && r.shortUsage >= r.shortLimit) {
		r.shortUsage = 0
		r.shortResetsAt = now.Add(ShortWindow)
	}
	if now.After(r.dailyResetsAt) || (force && r.dailyUsage >= r.dailyLimit) {
		r.dailyUsage = 0
		r.dailyResetsAt = nextDay(now)
	}
}

// UpdateFromHeaders updates rate limit state from Strava response headers
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strava returns: X-RateLimit-Limit: "100,1000" and X-RateLimit-Usage: "34,512"
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.shortUsage = short
		r.dailyUsage = daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.shortLimit = short
		r.dailyLimit = daily
	}
}

// Status returns current rate limit status
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shortLimit - r.shortUsage, r.dailyLimit - r.dailyUsage
}

func parsePair(v string) (int, int, bool) {
	parts := strings.Split(v, ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

// nextDay returns the next UTC midnight, when Strava resets the daily window
func nextDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}
