package core

import (
	"errors"

	"servosweep/protocol"
)

// Message IDs for outbound telemetry
const (
	MsgServoStatus = 1
)

var ErrUnexpectedMessage = errors.New("unexpected message id")

// ServoStatus is the decoded form of a servo_status frame
type ServoStatus struct {
	Clock uint32
	ServoState
}

// EncodeStatus writes a servo_status message:
// id clock=%u width=%i dir=%c mode=%c compare=%u periods=%u overruns=%u
func EncodeStatus(output protocol.OutputBuffer, clock uint32, st ServoState) {
	protocol.EncodeVLQUint(output, MsgServoStatus)
	protocol.EncodeVLQUint(output, clock)
	protocol.EncodeVLQInt(output, int32(st.Width))
	protocol.EncodeVLQUint(output, uint32(st.Direction))
	protocol.EncodeVLQUint(output, uint32(st.Mode))
	protocol.EncodeVLQUint(output, st.Compare)
	protocol.EncodeVLQUint(output, st.Periods)
	protocol.EncodeVLQUint(output, st.Overruns)
}

// DecodeStatus parses a servo_status payload, message id included
func DecodeStatus(data *[]byte) (ServoStatus, error) {
	var st ServoStatus

	id, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return st, err
	}
	if id != MsgServoStatus {
		return st, ErrUnexpectedMessage
	}

	fields := [7]uint32{}
	for i := range fields {
		if i == 1 {
			v, err := protocol.DecodeVLQInt(data)
			if err != nil {
				return st, err
			}
			fields[i] = uint32(v)
			continue
		}
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return st, err
		}
		fields[i] = v
	}

	st.Clock = fields[0]
	st.Width = PulseWidth(int32(fields[1]))
	st.Direction = SweepDirection(fields[2])
	st.Mode = OperatingMode(fields[3])
	st.Compare = fields[4]
	st.Periods = fields[5]
	st.Overruns = fields[6]
	return st, nil
}

// StatusReporter emits a servo_status frame every interval ticks of the
// system clock. Called from the main loop, never from the tick handler.
type StatusReporter struct {
	channel  *ServoChannel
	encoder  *protocol.Encoder
	interval uint32
	next     uint32
	started  bool
}

// NewStatusReporter creates a reporter with an interval in microseconds
func NewStatusReporter(ch *ServoChannel, enc *protocol.Encoder, intervalUS uint32) *StatusReporter {
	return &StatusReporter{
		channel:  ch,
		encoder:  enc,
		interval: TimerFromUS(intervalUS),
	}
}

// Poll emits a frame if the interval has elapsed and reports whether it did
func (r *StatusReporter) Poll(now uint32) bool {
	if r.started && int32(now-r.next) < 0 {
		return false
	}
	r.started = true
	r.next = now + r.interval

	st := r.channel.Snapshot()
	r.encoder.EncodeFrame(func(output protocol.OutputBuffer) {
		EncodeStatus(output, now, st)
	})
	return true
}
