package scraper

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer waits a uniformly random time in [Min, Max) before UI actions. A zero range
// disables pacing.
type Pacer struct {
	Min time.Duration
	Max time.Duration
}

// NewPacer returns a pacer for the given range.
func NewPacer(min, max time.Duration) *Pacer {
	return &Pacer{Min: min, Max: max}
}

// NoPacing returns a pacer that never waits.
func NoPacing() *Pacer {
	return &Pacer{}
}

// Next returns the next delay.
func (p *Pacer) Next() time.Duration {
	if p == nil || p.Max <= p.Min {
		if p == nil || p.Min < 0 {
			return 0
		}
		return p.Min
	}
	return p.Min + rand.N(p.Max-p.Min)
}

// Pause sleeps for the next delay or until ctx is done.
func (p *Pacer) Pause(ctx context.Context) error {
	return sleep(ctx, p.Next())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
