//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"servosweep/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// InitClock loads the system clock from the hardware timer.
// The RP2040 timer is a free-running 1MHz counter, matching core.TimerFreq.
func InitClock() {
	UpdateSystemTime()
	core.TimerInit()
}

// GetHardwareTime reads the RP2040 hardware timer
// Returns the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// UpdateSystemTime updates the core timer with hardware time.
// Called from the main loop and at the top of the period interrupt.
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
