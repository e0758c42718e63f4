//go:build rp2040

package main

import (
	"device/rp"
	"machine"
	"runtime/interrupt"
)

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// PWMTickSource drives a servo from one RP2040 PWM slice.
// The slice counter wraps once per period; the wrap interrupt is the
// period callback and the channel level is the compare register.
type PWMTickSource struct {
	pwm     pwmPeripheral
	slice   uint8
	channel uint8

	periodTicks uint32 // servo timer ticks per period
	top         uint32 // slice counter ticks per period
}

var (
	// Only one slice raises the wrap interrupt
	wrapSlice   uint8
	wrapHandler func()
)

// NewPWMTickSource configures the slice that owns pin for a periodUS
// frame. The output starts low until the first SetCompare.
func NewPWMTickSource(pin machine.Pin, periodTicks, periodUS uint32) (*PWMTickSource, error) {
	// RP2040: GPIO pin N maps to slice (N >> 1) & 0x7, channel N & 1
	slice := sliceForPin(pin)
	pwm := getPWMPeripheral(slice)

	err := pwm.Configure(machine.PWMConfig{
		Period: uint64(periodUS) * 1000,
	})
	if err != nil {
		return nil, err
	}

	channel, err := pwm.Channel(pin)
	if err != nil {
		return nil, err
	}
	pwm.Set(channel, 0)

	return &PWMTickSource{
		pwm:         pwm,
		slice:       slice,
		channel:     channel,
		periodTicks: periodTicks,
		top:         pwm.Top(),
	}, nil
}

// Start enables the wrap interrupt for this slice
func (s *PWMTickSource) Start(handler func()) {
	startWrapIRQ(s.slice, handler)
}

// PeriodTicks implements core.TickSource
func (s *PWMTickSource) PeriodTicks() uint32 {
	return s.periodTicks
}

// AckPeriod implements core.TickSource
func (s *PWMTickSource) AckPeriod() {
	ackWrap(s.slice)
}

// SetCompare implements core.TickSource. The level is double-buffered by
// the hardware and takes effect at the next wrap.
func (s *PWMTickSource) SetCompare(ticks uint32) {
	s.pwm.Set(s.channel, scaleToTop(ticks, s.periodTicks, s.top))
}

// scaleToTop converts servo timer ticks to slice counter ticks
func scaleToTop(ticks, periodTicks, top uint32) uint32 {
	if periodTicks == 0 {
		return 0
	}
	level := uint64(ticks) * uint64(top) / uint64(periodTicks)
	if level > uint64(top) {
		level = uint64(top)
	}
	return uint32(level)
}

func sliceForPin(pin machine.Pin) uint8 {
	return uint8((uint32(pin) >> 1) & 0x7)
}

// startWrapIRQ routes the wrap flag of slice to the CPU and installs
// handler as the period callback
func startWrapIRQ(slice uint8, handler func()) {
	wrapSlice = slice
	wrapHandler = handler

	ackWrap(slice)
	rp.PWM.INTE.SetBits(1 << slice)

	intr := interrupt.New(rp.IRQ_PWM_IRQ_WRAP, func(interrupt.Interrupt) {
		if rp.PWM.INTS.Get()&(1<<wrapSlice) == 0 {
			return
		}
		if wrapHandler != nil {
			wrapHandler()
		} else {
			ackWrap(wrapSlice)
		}
	})
	intr.Enable()
}

// ackWrap clears the wrap flag (write 1 to clear)
func ackWrap(slice uint8) {
	rp.PWM.INTR.Set(1 << slice)
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
// RP2040 has 8 PWM slices: PWM0-PWM7
// Returns a pwmPeripheral interface that wraps TinyGo's unexported *pwmGroup type
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	case 7:
		return machine.PWM7
	default:
		// Should never happen with proper masking
		return machine.PWM0
	}
}
