//go:build rp2040

package pio

import (
	"errors"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

var ErrNoStateMachine = errors.New("no free PIO0 state machine")

var (
	// PIO0 state machines handed out by this package. Only PIO0 is used:
	// its IRQ 0 line is the one wired to the period interrupt.
	smAllocations = [4]bool{}
	nextSMNum     = uint8(0)
)

// allocateSM claims the next free PIO0 state machine, round-robin
func allocateSM() (rp2pio.StateMachine, error) {
	for i := 0; i < 4; i++ {
		smNum := nextSMNum
		nextSMNum = (nextSMNum + 1) % 4

		if smAllocations[smNum] {
			continue
		}
		sm := rp2pio.PIO0.StateMachine(smNum)
		if !sm.TryClaim() {
			// claimed elsewhere (another driver)
			smAllocations[smNum] = true
			continue
		}
		smAllocations[smNum] = true
		return sm, nil
	}
	return rp2pio.StateMachine{}, ErrNoStateMachine
}

