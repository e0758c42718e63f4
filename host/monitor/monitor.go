// Package monitor decodes the firmware's servo_status telemetry
package monitor

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"servosweep/core"
	"servosweep/protocol"
)

// Monitor reads status frames from a firmware port
type Monitor struct {
	reader *protocol.FrameReader

	frames       atomic.Uint32
	decodeErrors atomic.Uint32
}

// Stats summarises link health
type Stats struct {
	Frames       uint32
	DecodeErrors uint32
	CRCErrors    uint32
	SequenceGaps uint32
}

// New starts reading frames from port. The monitor owns the port.
func New(port io.ReadCloser) *Monitor {
	return &Monitor{reader: protocol.NewFrameReader(port)}
}

// Run delivers every decoded status to handle until ctx is cancelled or
// the reader stops, returning the reader's error in that case. Frames that
// fail to decode are counted and skipped.
func (m *Monitor) Run(ctx context.Context, handle func(core.ServoStatus)) error {
	messages := m.reader.Messages()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return m.reader.Err()
			}
			payload := msg.Payload
			st, err := core.DecodeStatus(&payload)
			if err != nil {
				m.decodeErrors.Add(1)
				continue
			}
			m.frames.Add(1)
			handle(st)
		}
	}
}

// Stats returns the current counters
func (m *Monitor) Stats() Stats {
	return Stats{
		Frames:       m.frames.Load(),
		DecodeErrors: m.decodeErrors.Load(),
		CRCErrors:    m.reader.CRCErrors(),
		SequenceGaps: m.reader.SequenceGaps(),
	}
}

// Close stops the reader and closes the port
func (m *Monitor) Close() error {
	return m.reader.Close()
}

// FormatStatus renders one status line with the pulse length in
// milliseconds for a timer running at clockHz
func FormatStatus(st core.ServoStatus, clockHz uint32) string {
	pulse := float64(core.HighTimeUS(st.Compare, clockHz)) / 1000
	return fmt.Sprintf("clock=%d width=%d dir=%s mode=%s pulse=%.3fms periods=%d overruns=%d",
		st.Clock, st.Width, st.Direction, st.Mode, pulse, st.Periods, st.Overruns)
}
