// Package ratelimit implements the fixed-interval gate inserted between
// portal requests. The portal tolerates roughly one request per second; the
// gate is injected into the session so tests can run without delay.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Gate paces requests against the single portal host.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate returns a gate releasing one request per interval. A zero or
// negative interval disables pacing entirely.
func NewGate(interval time.Duration) *Gate {
	if interval <= 0 {
		return &Gate{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Gate{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next request slot is available or the context ends.
func (g *Gate) Wait(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate gate wait: %w", err)
	}
	return nil
}
