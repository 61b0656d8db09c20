package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces calls to an external service at a fixed minimum interval.
// With a burst of one, each Wait returns no earlier than one interval after
// the previous Wait returned.
type Limiter struct {
	interval time.Duration
	lim      *rate.Limiter
}

func NewLimiter(perMinute float64) (*Limiter, error) {
	if perMinute <= 0 {
		return nil, ErrInvalidRate
	}
	interval := time.Duration(float64(time.Minute) / perMinute)
	return &Limiter{
		interval: interval,
		lim:      rate.NewLimiter(rate.Every(interval), 1),
	}, nil
}

// Interval is the minimum spacing between calls.
func (l *Limiter) Interval() time.Duration { return l.interval }

// Wait blocks until the next call is allowed.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}
