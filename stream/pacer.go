package stream

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer spaces out unit delivery with a token bucket, for consumers that
// want a simulated-typing cadence instead of bursty flushes.
type Pacer struct {
	lim *rate.Limiter
}

// NewPacer creates a pacer releasing unitsPerSec units with the given
// burst. Non-positive arguments fall back to 10 units/sec, burst 1.
func NewPacer(unitsPerSec float64, burst int) *Pacer {
	if unitsPerSec <= 0 {
		unitsPerSec = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &Pacer{lim: rate.NewLimiter(rate.Limit(unitsPerSec), burst)}
}

// Wait blocks until the next unit may be delivered or ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.lim.Wait(ctx)
}

// Allow reports whether a unit may be delivered right now without
// waiting.
func (p *Pacer) Allow() bool {
	return p.lim.Allow()
}
