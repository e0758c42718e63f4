package protocol

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var ErrReaderClosed = errors.New("frame reader closed")

// MaxReadErrors is how many consecutive failed reads end the read loop,
// for example after the device is unplugged
const MaxReadErrors = 10

// FrameReader reads telemetry frames from a byte stream on the host side.
// A background goroutine parses frames, drops corrupt data up to the next
// sync byte and delivers valid messages on a channel.
type FrameReader struct {
	port io.ReadCloser

	inputBuffer    *FifoBuffer
	isSynchronized bool
	lastSeq        uint8
	haveSeq        bool

	messages chan *Message

	crcErrors  atomic.Uint32
	seqGaps    atomic.Uint32
	overflowed atomic.Uint32

	mu       sync.Mutex
	readErr  error
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewFrameReader starts reading frames from port
func NewFrameReader(port io.ReadCloser) *FrameReader {
	r := &FrameReader{
		port:           port,
		inputBuffer:    NewFifoBuffer(4 * MessageMax),
		isSynchronized: true,
		messages:       make(chan *Message, 16),
		stopChan:       make(chan struct{}),
		doneChan:       make(chan struct{}),
	}
	go r.readLoop()
	return r
}

// Messages returns the channel of parsed frames. It is closed when the
// reader stops.
func (r *FrameReader) Messages() <-chan *Message {
	return r.messages
}

// Next waits up to timeout for the next frame
func (r *FrameReader) Next(timeout time.Duration) (*Message, error) {
	select {
	case msg, ok := <-r.messages:
		if !ok {
			return nil, r.Err()
		}
		return msg, nil
	case <-time.After(timeout):
		return nil, errors.New("timed out waiting for frame")
	}
}

// Err reports why the reader stopped: the last read error, or
// ErrReaderClosed for a clean end of stream
func (r *FrameReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return r.readErr
	}
	return ErrReaderClosed
}

func (r *FrameReader) readLoop() {
	defer close(r.doneChan)
	defer close(r.messages)

	buffer := make([]byte, 256)
	failures := 0
	for {
		select {
		case <-r.stopChan:
			return
		default:
		}

		n, err := r.port.Read(buffer)
		if n > 0 {
			r.feed(buffer[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case <-r.stopChan:
				return
			default:
			}
			r.mu.Lock()
			r.readErr = err
			r.mu.Unlock()
			failures++
			if failures >= MaxReadErrors {
				return
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if failures > 0 {
			failures = 0
			r.mu.Lock()
			r.readErr = nil
			r.mu.Unlock()
		}
	}
}

// feed buffers data, pushing the oldest bytes out if the buffer is full
func (r *FrameReader) feed(data []byte) {
	for len(data) > 0 {
		written := r.inputBuffer.Write(data)
		data = data[written:]
		r.processFrames()
		if written == 0 {
			r.inputBuffer.Pop(r.inputBuffer.Available())
			r.overflowed.Add(1)
			r.isSynchronized = false
		}
	}
}

// processFrames parses every complete frame in the input buffer
func (r *FrameReader) processFrames() {
	data := r.inputBuffer.Data()

	for len(data) > 0 {
		if !r.isSynchronized {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			r.isSynchronized = true
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			r.isSynchronized = false
			continue
		}
		if len(data) < msgLen {
			break
		}
		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			r.isSynchronized = false
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			r.crcErrors.Add(1)
			r.isSynchronized = false
			continue
		}

		seq := data[MessagePositionSeq]
		payload := make([]byte, msgLen-MessageHeaderSize-MessageTrailerSize)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		data = data[msgLen:]

		if r.haveSeq && seq != NextSequence(r.lastSeq) {
			r.seqGaps.Add(1)
		}
		r.lastSeq, r.haveSeq = seq, true

		r.dispatch(&Message{
			Length:   uint8(msgLen),
			Sequence: seq,
			Payload:  payload,
			CRC:      frameCRC,
		})
	}

	consumed := r.inputBuffer.Available() - len(data)
	if consumed > 0 {
		r.inputBuffer.Pop(consumed)
	}
}

// dispatch delivers msg, dropping the oldest queued frame when the
// consumer falls behind
func (r *FrameReader) dispatch(msg *Message) {
	select {
	case r.messages <- msg:
		return
	default:
	}
	select {
	case <-r.messages:
	default:
	}
	select {
	case r.messages <- msg:
	default:
	}
}

// CRCErrors returns the number of frames rejected for a bad checksum
func (r *FrameReader) CRCErrors() uint32 {
	return r.crcErrors.Load()
}

// SequenceGaps returns how many times the sequence skipped ahead
func (r *FrameReader) SequenceGaps() uint32 {
	return r.seqGaps.Load()
}

// Close stops the read loop and closes the port
func (r *FrameReader) Close() error {
	var err error
	r.stopOnce.Do(func() {
		close(r.stopChan)
		// Closing the port unblocks a pending Read
		if r.port != nil {
			err = r.port.Close()
		}
		<-r.doneChan
	})
	return err
}
