//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// hostIRQ stands in for the interrupt mask on the host: tick goroutines
// and readers of servo state serialise on it
var hostIRQ sync.Mutex

// disableInterrupts takes the host lock. Not reentrant.
func disableInterrupts() State {
	hostIRQ.Lock()
	return 0
}

// restoreInterrupts releases the host lock
func restoreInterrupts(state State) {
	hostIRQ.Unlock()
}
