package pca9685

import (
	"context"
	"time"

	"servosweep/core"
)

// Marker is a digital line raised for the duration of each tick
type Marker interface {
	Set(value int) error
}

// Run calls tick once per period until ctx is cancelled. The system clock
// follows wall time in microseconds so an attached OverrunMonitor sees
// late periods. tick runs on this goroutine only, never nested.
func (b *Board) Run(ctx context.Context, period time.Duration, tick func(), marker Marker) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	start := time.Now()
	core.SetTime(0)
	core.TimerInit()

	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
		case now := <-ticker.C:
			core.SetTime(uint32(now.Sub(start).Microseconds()))
			b.MarkPeriod()

			if marker != nil {
				_ = marker.Set(1)
			}
			core.WithInterruptsDisabled(tick)
			if marker != nil {
				_ = marker.Set(0)
			}
		}
	}
	return ctx.Err()
}
