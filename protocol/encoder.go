package protocol

// Encoder frames outbound messages into an OutputBuffer. Every frame
// carries the next sequence number so a reader can count drops.
type Encoder struct {
	output   OutputBuffer
	sequence uint8
	frames   uint32
	dropped  uint32
}

// NewEncoder creates an encoder starting at sequence MessageDest
func NewEncoder(output OutputBuffer) *Encoder {
	return &Encoder{
		output:   output,
		sequence: MessageDest,
	}
}

// EncodeFrame writes one frame whose payload is produced by frameData.
// A payload that does not fit MessageLengthMax is rolled back and counted
// as dropped.
func (e *Encoder) EncodeFrame(frameData func(output OutputBuffer)) bool {
	cursor := e.output.CurPosition()

	// Length placeholder, patched once the payload size is known
	e.output.Output([]byte{0, e.sequence})
	frameData(e.output)

	msgLen := len(e.output.DataSince(cursor)) + MessageTrailerSize
	if msgLen > MessageLengthMax || len(e.output.DataSince(cursor)) < MessageHeaderSize {
		e.rollback(cursor)
		e.dropped++
		return false
	}
	e.output.Update(cursor+MessagePositionLen, uint8(msgLen))

	appendTrailer(e.output, CRC16(e.output.DataSince(cursor)))
	if e.output.CurPosition()-cursor != msgLen {
		// output buffer full, trailer truncated
		e.rollback(cursor)
		e.dropped++
		return false
	}

	e.sequence = NextSequence(e.sequence)
	e.frames++
	return true
}

// rollback discards everything written after cursor. Only ScratchOutput
// supports it; other buffers keep the partial frame and the reader
// resynchronises on the next sync byte.
func (e *Encoder) rollback(cursor int) {
	if s, ok := e.output.(*ScratchOutput); ok {
		s.pos = cursor
	}
}

// Sequence returns the sequence byte of the next frame
func (e *Encoder) Sequence() uint8 {
	return e.sequence
}

// Frames returns the number of frames written
func (e *Encoder) Frames() uint32 {
	return e.frames
}

// Dropped returns the number of frames that did not fit
func (e *Encoder) Dropped() uint32 {
	return e.dropped
}

// Reset restarts the sequence (after a reconnect)
func (e *Encoder) Reset() {
	e.sequence = MessageDest
}
