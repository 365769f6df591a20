// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dzrp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// lengthFieldSize is the size of the little-endian length prefix that
// starts every frame. The length counts the bytes after it.
const lengthFieldSize = 4

// MaxFrameLength bounds the length field. The largest legitimate frame
// is a 64 KiB memory read plus its header; anything far beyond that
// means the stream is no longer aligned on a frame boundary.
const MaxFrameLength = 1 << 20

// ErrMalformedFrame reports a frame header that cannot be valid. The
// protocol has no resynchronization marker, so the stream is unusable
// after this error.
var ErrMalformedFrame = errors.New("malformed DZRP frame")

// Request is one decoded request frame.
type Request struct {
	Sequence uint8
	Opcode   Opcode
	Payload  []byte
}

func (r Request) String() string {
	return fmt.Sprintf("%s seq=%d len=%d", r.Opcode, r.Sequence, len(r.Payload))
}

// Response is one decoded response frame. Sequence 0 marks an
// unsolicited notification; its payload is parsed by ParseNotification.
type Response struct {
	Sequence uint8
	Payload  []byte
}

// IsNotification reports whether the frame is an unsolicited event.
func (r Response) IsNotification() bool {
	return r.Sequence == 0
}

// EncodeRequest builds a request frame:
// [length:4 LE] [sequence:1] [opcode:1] [payload].
func EncodeRequest(sequence uint8, opcode Opcode, payload []byte) []byte {
	frame := make([]byte, lengthFieldSize+2+len(payload))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(2+len(payload)))
	frame[4] = sequence
	frame[5] = byte(opcode)
	copy(frame[6:], payload)
	return frame
}

// DecodeRequest parses one complete request frame, length prefix
// included.
func DecodeRequest(frame []byte) (Request, error) {
	if len(frame) < lengthFieldSize {
		return Request{}, fmt.Errorf("%w: %d bytes is shorter than the length field", ErrMalformedFrame, len(frame))
	}
	length := binary.LittleEndian.Uint32(frame[0:4])
	if int(length) != len(frame)-lengthFieldSize {
		return Request{}, fmt.Errorf("%w: length field %d, frame carries %d bytes", ErrMalformedFrame, length, len(frame)-lengthFieldSize)
	}
	return ParseRequest(frame[lengthFieldSize:])
}

// ParseRequest parses a request body: the bytes after the length field.
func ParseRequest(body []byte) (Request, error) {
	if len(body) < 2 {
		return Request{}, fmt.Errorf("%w: request body of %d bytes has no opcode", ErrMalformedFrame, len(body))
	}
	return Request{
		Sequence: body[0],
		Opcode:   Opcode(body[1]),
		Payload:  body[2:],
	}, nil
}

// EncodeResponse builds a response frame:
// [length:4 LE] [sequence:1] [payload].
func EncodeResponse(sequence uint8, payload []byte) []byte {
	frame := make([]byte, lengthFieldSize+1+len(payload))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(1+len(payload)))
	frame[4] = sequence
	copy(frame[5:], payload)
	return frame
}

// ParseResponse parses a response body: the bytes after the length
// field. The body is never empty for a frame returned by FrameDecoder.
func ParseResponse(body []byte) Response {
	return Response{Sequence: body[0], Payload: body[1:]}
}

// FrameDecoder splits a byte stream into frame bodies. Partial frames
// are carried over to the next Decode call.
//
// A FrameDecoder is not safe for concurrent use.
type FrameDecoder struct {
	buffer []byte
}

// Decode appends data and returns the body of every complete frame, in
// order. A zero or oversized length field returns the bodies decoded
// before it together with an error wrapping ErrMalformedFrame; the
// decoder must not be used after that.
func (d *FrameDecoder) Decode(data []byte) ([][]byte, error) {
	d.buffer = append(d.buffer, data...)

	var bodies [][]byte
	for len(d.buffer) >= lengthFieldSize {
		length := binary.LittleEndian.Uint32(d.buffer[0:4])
		if length == 0 || length > MaxFrameLength {
			return bodies, fmt.Errorf("%w: length field %d", ErrMalformedFrame, length)
		}
		end := lengthFieldSize + int(length)
		if len(d.buffer) < end {
			break
		}
		body := make([]byte, length)
		copy(body, d.buffer[lengthFieldSize:end])
		bodies = append(bodies, body)
		d.buffer = d.buffer[end:]
	}
	if len(d.buffer) == 0 {
		d.buffer = nil
	}
	return bodies, nil
}

// Buffered returns the number of bytes held for an incomplete frame.
func (d *FrameDecoder) Buffered() int {
	return len(d.buffer)
}

// Reset discards any partial frame.
func (d *FrameDecoder) Reset() {
	d.buffer = nil
}

// Sequencer allocates request sequence numbers: 1, 2, ..., 255, 1, ...
// Zero is reserved for notifications and never returned.
type Sequencer struct {
	last uint8
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint8 {
	s.last++
	if s.last == 0 {
		s.last = 1
	}
	return s.last
}
