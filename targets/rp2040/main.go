//go:build rp2040

package main

import (
	"machine"
	"time"

	"servosweep/core"
	"servosweep/protocol"
	"servosweep/targets/boot"
	"servosweep/targets/pio"
)

// periodSource is a core.TickSource that can start its period interrupt
type periodSource interface {
	core.TickSource
	Start(handler func())
}

var (
	channel  *core.ServoChannel
	overruns *core.OverrunMonitor

	// Telemetry output
	outputBuffer *protocol.ScratchOutput
	encoder      *protocol.Encoder
	reporter     *core.StatusReporter

	// USB connection state tracking
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
	msgerrors                uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	InitDebugUART()
	core.SetDebugWriter(DebugPrintln)
	core.SetDebugEnabled(true)

	InitClock()

	mode := GetMode()
	core.SetTickTracing(mode.TickTracing)

	src, err := newPeriodSource(mode)
	if err != nil {
		core.DebugPrintln("servo: backend " + mode.Backend.String() + " failed: " + err.Error())
		haltBlink()
	}

	channel, err = core.NewServoChannel(src, mode.Servo)
	if err != nil {
		core.DebugPrintln(err.Error())
		haltBlink()
	}
	overruns = core.NewOverrunMonitor(mode.Servo.PeriodUS)
	channel.SetOverrunMonitor(overruns)

	outputBuffer = protocol.NewScratchOutput()
	encoder = protocol.NewEncoder(outputBuffer)
	if mode.StatusIntervalUS > 0 {
		reporter = core.NewStatusReporter(channel, encoder, mode.StatusIntervalUS)
	}

	core.DebugPrintln("servo: " + mode.Backend.String() + " " + core.FormatState(channel.Snapshot()))
	src.Start(onPeriod)

	lastOverrunEvents := uint32(0)
	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					outputBuffer.Reset()
				}
			}()

			UpdateSystemTime()
			DrainUSB()

			if reporter != nil {
				reporter.Poll(core.GetTime())
			}
			if len(outputBuffer.Result()) > 0 {
				writeUSB()
			}

			// Dump the ring on each new late period, outside the interrupt
			if events := overruns.Events(); events != lastOverrunEvents {
				lastOverrunEvents = events
				core.DumpTimingRing()
			}
		}()

		time.Sleep(100 * time.Microsecond)
	}
}

// onPeriod runs in the period interrupt
func onPeriod() {
	UpdateSystemTime()
	channel.Tick()
}

func newPeriodSource(mode ModeConfig) (periodSource, error) {
	cfg := mode.Servo
	switch mode.Backend {
	case boot.BackendServoDriver:
		return NewDriverTickSource(mode.Pin, cfg.PeriodTicks(), cfg.ClockHz)
	case boot.BackendPIO:
		return pio.NewServoPIO(mode.Pin, cfg.PeriodTicks(), cfg.PeriodUS)
	default:
		return NewPWMTickSource(mode.Pin, cfg.PeriodTicks(), cfg.PeriodUS)
	}
}

// haltBlink signals a fatal startup error on the LED forever
func haltBlink() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}

// writeUSB writes the pending telemetry frames to USB
func writeUSB() {
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		written += n
		if err != nil || n == 0 {
			// Keep only the unsent tail so a retry never repeats bytes
			outputBuffer.Consume(written)

			// Write error or no progress - likely disconnect
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				// Don't keep trying to send stale frames
				outputBuffer.Reset()
			}
			return
		}
	}

	if usbWasDisconnected {
		// Host reconnected: restart the sequence for the new reader
		usbWasDisconnected = false
		encoder.Reset()
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
