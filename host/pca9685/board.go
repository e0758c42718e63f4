// Package pca9685 drives a servo channel from a Linux host through a
// PCA9685 16-channel PWM board on I2C.
package pca9685

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"

	"servosweep/config"
)

// Counts is the PCA9685 resolution per PWM period
const Counts = 4096

// pwmWriter is the part of *pca9685.Dev the board uses
type pwmWriter interface {
	SetPwm(channel int, on, off gpio.Duty) error
}

// Board is a core.TickSource on one PCA9685 output. The chip generates
// the 50Hz frame itself; compare values are rescaled from servo timer
// ticks to 12-bit counts.
type Board struct {
	dev         pwmWriter
	bus         i2c.BusCloser
	channel     int
	periodTicks uint32

	mu      sync.Mutex
	pending bool
	off     gpio.Duty
	writes  uint32
	errors  uint32
	lastErr error
}

// Open initialises periph, opens the bus and configures the board for a
// 50Hz frame. periodTicks is the servo period in timer ticks.
func Open(cfg config.OutputConfig, periodTicks uint32) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Bus, err)
	}

	dev, err := pca9685.NewI2C(bus, cfg.Address)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to open PCA9685 at 0x%02x: %w", cfg.Address, err)
	}
	if err := dev.SetPwmFreq(50 * physic.Hertz); err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to set PWM frequency: %w", err)
	}

	b := newBoard(dev, cfg.Channel, periodTicks)
	b.bus = bus
	return b, nil
}

func newBoard(dev pwmWriter, channel int, periodTicks uint32) *Board {
	return &Board{
		dev:         dev,
		channel:     channel,
		periodTicks: periodTicks,
	}
}

// ToCounts converts servo timer ticks to PCA9685 counts, rounding to
// nearest and saturating at a full period
func ToCounts(ticks, periodTicks uint32) gpio.Duty {
	if periodTicks == 0 {
		return 0
	}
	counts := (uint64(ticks)*Counts + uint64(periodTicks)/2) / uint64(periodTicks)
	if counts > Counts {
		counts = Counts
	}
	return gpio.Duty(counts)
}

// MarkPeriod latches the period-elapsed flag; called by the tick loop
func (b *Board) MarkPeriod() {
	b.mu.Lock()
	b.pending = true
	b.mu.Unlock()
}

// PeriodTicks implements core.TickSource
func (b *Board) PeriodTicks() uint32 {
	return b.periodTicks
}

// AckPeriod implements core.TickSource
func (b *Board) AckPeriod() {
	b.mu.Lock()
	b.pending = false
	b.mu.Unlock()
}

// SetCompare implements core.TickSource. Unchanged values skip the I2C
// write. A failed write is counted and kept for Err.
func (b *Board) SetCompare(ticks uint32) {
	off := ToCounts(ticks, b.periodTicks)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writes > 0 && off == b.off {
		return
	}
	if err := b.dev.SetPwm(b.channel, 0, off); err != nil {
		b.errors++
		b.lastErr = err
		return
	}
	b.off = off
	b.writes++
}

// Pending reports whether the last period is still unacknowledged
func (b *Board) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Writes returns the number of successful register writes
func (b *Board) Writes() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// WriteErrors returns the number of failed writes and the last error
func (b *Board) WriteErrors() (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errors, b.lastErr
}

// Close turns the output off and releases the bus
func (b *Board) Close() error {
	err := b.dev.SetPwm(b.channel, 0, 0)
	if b.bus != nil {
		if cerr := b.bus.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
