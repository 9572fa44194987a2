package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing Telegram Bot API calls with a token bucket.
// Telegram rejects bots that broadcast too fast (429 with retry_after), so
// every sendMessage goes through Allow first. The bucket admits up to burst
// sends at once and refills at the sustained rate.
type RateLimiter struct {
	rate    rate.Limit
	burst   int
	limiter *rate.Limiter
}

// NewRateLimiter builds a limiter that sustains perSecond sends with the
// given burst capacity. The Telegram client uses 1 msg/s with a burst of 3,
// conservative against the documented per-chat flood limits.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	r := rate.Limit(perSecond)
	return &RateLimiter{
		rate:    r,
		burst:   burst,
		limiter: rate.NewLimiter(r, burst),
	}
}

// Allow blocks until a send token is available or ctx is canceled. The
// returned error is ctx.Err() when the wait was interrupted.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
