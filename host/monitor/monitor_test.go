package monitor

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"servosweep/core"
	"servosweep/protocol"
)

func statusFrames(t *testing.T, states ...core.ServoState) []byte {
	t.Helper()
	output := protocol.NewScratchOutput()
	enc := protocol.NewEncoder(output)
	for i, st := range states {
		if !enc.EncodeFrame(func(out protocol.OutputBuffer) {
			core.EncodeStatus(out, uint32(i)*500000, st)
		}) {
			t.Fatalf("Frame %d did not fit", i)
		}
	}
	// a frame with another message id
	enc.EncodeFrame(func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, 9)
	})
	return append([]byte(nil), output.Result()...)
}

func TestMonitorDecodesStatus(t *testing.T) {
	states := []core.ServoState{
		{Width: 0, Direction: core.Rising, Mode: core.ModeSweep, Compare: 48000, Periods: 0},
		{Width: 12000, Direction: core.Rising, Mode: core.ModeSweep, Compare: 60000, Periods: 25},
		{Width: 48000, Direction: core.Falling, Mode: core.ModeSweep, Compare: 96000, Periods: 100, Overruns: 1},
	}
	data := statusFrames(t, states...)

	pr, pw := io.Pipe()
	m := New(pr)
	defer m.Close()

	go func() {
		pw.Write(data)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []core.ServoStatus
	err := m.Run(ctx, func(st core.ServoStatus) {
		got = append(got, st)
		if len(got) == len(states) {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}

	for i, st := range got {
		if st.ServoState != states[i] || st.Clock != uint32(i)*500000 {
			t.Errorf("Frame %d decoded as %+v", i, st)
		}
	}
	if s := m.Stats(); s.Frames != 3 || s.CRCErrors != 0 {
		t.Errorf("Unexpected stats: %+v", s)
	}
}

func TestMonitorCountsForeignMessages(t *testing.T) {
	data := statusFrames(t, core.ServoState{Compare: 48000})

	pr, pw := io.Pipe()
	m := New(pr)

	go func() {
		pw.Write(data)
		pw.Close()
	}()

	err := m.Run(context.Background(), func(core.ServoStatus) {})
	if !errors.Is(err, protocol.ErrReaderClosed) {
		t.Errorf("Expected ErrReaderClosed at end of stream, got %v", err)
	}
	if s := m.Stats(); s.Frames != 1 || s.DecodeErrors != 1 {
		t.Errorf("Expected 1 frame and 1 decode error, got %+v", s)
	}
	m.Close()
}

// unpluggedPort fails every read the way a removed USB device does
type unpluggedPort struct{}

var errUnplugged = errors.New("read /dev/ttyACM0: input/output error")

func (unpluggedPort) Read([]byte) (int, error) { return 0, errUnplugged }
func (unpluggedPort) Close() error { return nil }

func TestMonitorReturnsReadError(t *testing.T) {
	m := New(unpluggedPort{})
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := m.Run(ctx, func(core.ServoStatus) {})
	if !errors.Is(err, errUnplugged) {
		t.Errorf("Expected the device error, got %v", err)
	}
}

func TestFormatStatus(t *testing.T) {
	st := core.ServoStatus{
		Clock: 42,
		ServoState: core.ServoState{
			Width: 24000, Direction: core.Falling, Mode: core.ModeSweep,
			Compare: 72000, Periods: 150, Overruns: 0,
		},
	}
	want := "clock=42 width=24000 dir=falling mode=sweep pulse=1.500ms periods=150 overruns=0"
	if got := FormatStatus(st, core.DefaultClockHz); got != want {
		t.Errorf("FormatStatus = %q, expected %q", got, want)
	}
}
