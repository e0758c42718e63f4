//go:build rp2040

package pio

// Servo pulse generation on a PIO state machine. The state machine times
// both phases of every period itself; the CPU only supplies the next
// high/low split once per period, so the edge timing has no interrupt
// latency jitter.

import (
	"device/rp"
	"machine"
	"runtime/interrupt"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildServoProgram creates the pulse program using AssemblerV0.
//
// Period word format (shift right, low half first):
//
//	Bits 0-15:  high phase loop count
//	Bits 16-31: low phase loop count
//
// An empty FIFO repeats the previous word, so a late update holds the
// last pulse width instead of stopping the output.
func buildServoProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, false).Encode(),                      // 0: pull noblock (OSR = X when empty)
		rp2pio.EncodeMov(rp2pio.SrcDestX, rp2pio.SrcDestOSR), // 1: mov x, osr
		asm.IRQSet(false, 0).Encode(),                        // 2: irq nowait 0 (period start)
		asm.Out(rp2pio.OutDestY, 16).Encode(),                // 3: out y, 16
		asm.Set(rp2pio.SetDestPins, 1).Encode(),              // 4: set pins, 1
		asm.Jmp(5, rp2pio.JmpYNZeroDec).Encode(),             // 5: jmp y--, 5
		asm.Out(rp2pio.OutDestY, 16).Encode(),                // 6: out y, 16
		asm.Set(rp2pio.SetDestPins, 0).Encode(),              // 7: set pins, 0
		asm.Jmp(8, rp2pio.JmpYNZeroDec).Encode(),             // 8: jmp y--, 8
		// .wrap
	}
}

const servoPIOOrigin = 0 // Load at offset 0 for correct jump addresses

// ServoPIO is a core.TickSource on a PIO0 state machine
type ServoPIO struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8

	periodTicks  uint32 // servo timer ticks per period
	periodCycles uint32 // state machine cycles per period

	dropped uint32
}

var (
	activeServo *ServoPIO
	periodFunc  func()
)

// NewServoPIO loads the pulse program and configures a state machine on
// pin. The state machine stays disabled until Start.
func NewServoPIO(pin machine.Pin, periodTicks, periodUS uint32) (*ServoPIO, error) {
	sm, err := allocateSM()
	if err != nil {
		return nil, err
	}

	s := &ServoPIO{
		pio:          rp2pio.PIO0,
		sm:           sm,
		pin:          pin,
		periodTicks:  periodTicks,
		periodCycles: PeriodCycles(periodUS),
	}

	program := buildServoProgram()
	offset, err := s.pio.AddProgram(program, servoPIOOrigin)
	if err != nil {
		return nil, err
	}
	s.offset = offset

	pin.Configure(machine.PinConfig{Mode: s.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(pin, 1)
	// Shift right, autopull disabled (explicit PULL), 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset, offset+uint8(len(program))-1)

	whole, frac, err := rp2pio.ClkDivFromFrequency(CycleHz, machine.CPUFrequency())
	if err != nil {
		return nil, err
	}
	cfg.SetClkDivIntFrac(whole, frac)

	s.sm.Init(offset, cfg)
	s.sm.SetPindirsConsecutive(pin, 1, true)
	s.sm.SetPinsConsecutive(pin, 1, false)

	return s, nil
}

// Start routes state machine IRQ 0 to the CPU and enables the program.
// handler runs once per period in interrupt context.
func (s *ServoPIO) Start(handler func()) {
	activeServo = s
	periodFunc = handler

	s.pio.ClearIRQ(1 << 0)
	// INTE bits 8-11 are the state machine IRQ flags 0-3
	s.pio.HW().IRQ_INT[0].E.SetBits(1 << 8)
	intr := interrupt.New(rp.IRQ_PIO0_IRQ_0, func(interrupt.Interrupt) {
		if periodFunc != nil {
			periodFunc()
		} else if activeServo != nil {
			activeServo.AckPeriod()
		}
	})
	intr.Enable()

	s.sm.SetEnabled(true)
}

// Stop halts the state machine with the output low
func (s *ServoPIO) Stop() {
	s.sm.SetEnabled(false)
	s.sm.ClearFIFOs()
	s.sm.Restart()
	s.sm.SetPinsConsecutive(s.pin, 1, false)
}

// PeriodTicks implements core.TickSource
func (s *ServoPIO) PeriodTicks() uint32 {
	return s.periodTicks
}

// AckPeriod implements core.TickSource
func (s *ServoPIO) AckPeriod() {
	s.pio.ClearIRQ(1 << 0)
}

// SetCompare implements core.TickSource. The word is queued for the next
// period; a full FIFO drops it and the state machine repeats the last one.
func (s *ServoPIO) SetCompare(ticks uint32) {
	if s.sm.IsTxFIFOFull() {
		s.dropped++
		return
	}
	s.sm.TxPut(s.PeriodWord(ticks))
}

// Dropped returns the number of compare updates lost to a full FIFO
func (s *ServoPIO) Dropped() uint32 {
	return s.dropped
}

// PeriodWord returns the word queued for a compare value
func (s *ServoPIO) PeriodWord(ticks uint32) uint32 {
	return PeriodWord(ticks, s.periodTicks, s.periodCycles)
}
