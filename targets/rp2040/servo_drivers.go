//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/servo"

	"servosweep/core"
)

// DriverTickSource drives the pulse through tinygo.org/x/drivers/servo.
// The driver configures the slice for 50Hz and takes the pulse in
// microseconds, so compare values lose sub-microsecond resolution.
type DriverTickSource struct {
	servo       servo.Servo
	slice       uint8
	periodTicks uint32
	clockHz     uint32
}

// NewDriverTickSource configures a servo on pin. The frame rate is fixed
// at 50Hz by the driver.
func NewDriverTickSource(pin machine.Pin, periodTicks, clockHz uint32) (*DriverTickSource, error) {
	slice := sliceForPin(pin)
	s, err := servo.New(getPWMPeripheral(slice), pin)
	if err != nil {
		return nil, err
	}
	return &DriverTickSource{
		servo:       s,
		slice:       slice,
		periodTicks: periodTicks,
		clockHz:     clockHz,
	}, nil
}

// Start enables the wrap interrupt for the driver's slice
func (d *DriverTickSource) Start(handler func()) {
	startWrapIRQ(d.slice, handler)
}

// PeriodTicks implements core.TickSource
func (d *DriverTickSource) PeriodTicks() uint32 {
	return d.periodTicks
}

// AckPeriod implements core.TickSource
func (d *DriverTickSource) AckPeriod() {
	ackWrap(d.slice)
}

// SetCompare implements core.TickSource
func (d *DriverTickSource) SetCompare(ticks uint32) {
	us := core.HighTimeUS(ticks, d.clockHz)
	if us > 0x7FFF {
		us = 0x7FFF
	}
	d.servo.SetMicroseconds(int16(us))
}
