package pca9685

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"

	"servosweep/core"
)

type pwmCall struct {
	channel int
	on, off gpio.Duty
}

type fakeDev struct {
	mu    sync.Mutex
	calls []pwmCall
	err   error
}

func (f *fakeDev) SetPwm(channel int, on, off gpio.Duty) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, pwmCall{channel, on, off})
	return nil
}

func (f *fakeDev) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestToCounts(t *testing.T) {
	testCases := []struct {
		ticks uint32
		want  gpio.Duty
	}{
		{0, 0},
		{48000, 205},
		{96000, 410},
		{960000, 4096},
		{2000000, 4096},
	}

	for _, tc := range testCases {
		if got := ToCounts(tc.ticks, 960000); got != tc.want {
			t.Errorf("ToCounts(%d) = %d, expected %d", tc.ticks, got, tc.want)
		}
	}
	if got := ToCounts(1, 0); got != 0 {
		t.Errorf("ToCounts with zero period = %d", got)
	}
}

func TestBoardDrivesChannel(t *testing.T) {
	dev := &fakeDev{}
	cfg := core.DefaultServoConfig()
	b := newBoard(dev, 5, cfg.PeriodTicks())

	ch, err := core.NewServoChannel(b, cfg)
	if err != nil {
		t.Fatalf("NewServoChannel failed: %v", err)
	}
	if len(dev.calls) != 1 || dev.calls[0] != (pwmCall{5, 0, 205}) {
		t.Fatalf("Unexpected initial write: %+v", dev.calls)
	}

	b.MarkPeriod()
	ch.Tick()
	if b.Pending() {
		t.Errorf("Tick did not acknowledge the period")
	}

	// 480 ticks is 2 counts; every write lands in 205..410
	for i := 0; i < 199; i++ {
		ch.Tick()
	}
	for _, c := range dev.calls {
		if c.off < 205 || c.off > 410 {
			t.Fatalf("Write out of range: %+v", c)
		}
	}
	if b.Writes() != uint32(len(dev.calls)) {
		t.Errorf("Writes() = %d, recorded %d", b.Writes(), len(dev.calls))
	}
}

func TestBoardSkipsRepeatedValue(t *testing.T) {
	dev := &fakeDev{}
	b := newBoard(dev, 0, 960000)

	b.SetCompare(48000)
	b.SetCompare(48000)
	b.SetCompare(48100) // same count after rounding
	if len(dev.calls) != 1 {
		t.Errorf("Expected one I2C write, got %d", len(dev.calls))
	}
}

func TestBoardCountsErrors(t *testing.T) {
	dev := &fakeDev{err: errors.New("nack")}
	b := newBoard(dev, 0, 960000)

	b.SetCompare(48000)
	b.SetCompare(96000)
	n, err := b.WriteErrors()
	if err == nil || n != 2 {
		t.Errorf("Expected 2 failed writes, got %d (%v)", n, err)
	}
	if b.Writes() != 0 {
		t.Errorf("Failed writes counted as successful")
	}
}

type fakeMarker struct {
	mu     sync.Mutex
	values []int
}

func (m *fakeMarker) Set(value int) error {
	m.mu.Lock()
	m.values = append(m.values, value)
	m.mu.Unlock()
	return nil
}

func TestRunTicksUntilCancelled(t *testing.T) {
	dev := &fakeDev{}
	b := newBoard(dev, 0, 960000)
	marker := &fakeMarker{}

	ctx, cancel := context.WithCancel(context.Background())
	ticks := 0
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx, time.Millisecond, func() {
			ticks++
			if ticks == 5 {
				cancel()
			}
		}, marker)
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop")
	}

	if ticks != 5 {
		t.Errorf("Expected 5 ticks, got %d", ticks)
	}
	marker.mu.Lock()
	defer marker.mu.Unlock()
	if len(marker.values) != 10 || marker.values[0] != 1 || marker.values[1] != 0 {
		t.Errorf("Marker not pulsed around each tick: %v", marker.values)
	}
}
