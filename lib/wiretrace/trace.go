// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wiretrace

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/simlink/lib/clock"
	"github.com/bureau-foundation/simlink/lib/codec"
)

// Direction is which way a chunk crossed the link.
type Direction uint8

const (
	// Outbound bytes were written to the remote.
	Outbound Direction = 1
	// Inbound bytes were read from the remote.
	Inbound Direction = 2
)

func (d Direction) String() string {
	switch d {
	case Outbound:
		return "=>"
	case Inbound:
		return "<="
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Record is one chunk of link traffic.
type Record struct {
	Direction Direction `cbor:"direction"`
	At        time.Time `cbor:"at"`
	Data      []byte    `cbor:"data"`
}

// headerSize is the frame header: compression, raw length, stored
// length.
const headerSize = 1 + 4 + 4

// maxRecordSize bounds both lengths in a frame header. A link read is
// at most a few KiB, so anything larger is a corrupt file.
const maxRecordSize = 16 << 20

// Options configures a Recorder.
type Options struct {
	// Compression is the preferred algorithm. Records it does not
	// shrink are stored uncompressed.
	Compression Compression

	// Clock timestamps records. Nil uses the real clock.
	Clock clock.Clock

	// Logger reports the first write failure. Nil discards.
	Logger *slog.Logger
}

// Recorder writes a trace. It implements correlate.Tap and is safe for
// concurrent use: the engine calls Outbound and Inbound from different
// goroutines.
//
// Tap methods cannot fail, so the first write error is kept and
// returned by Err and Close; recording stops after it.
type Recorder struct {
	options Options
	closer  io.Closer

	mu      sync.Mutex
	writer  io.Writer
	records int
	err     error
}

// NewRecorder returns a Recorder writing to w.
func NewRecorder(w io.Writer, options Options) *Recorder {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{options: options, writer: w}
}

// Create opens path for writing, truncating it, and returns a Recorder
// that closes the file on Close.
func Create(path string, options Options) (*Recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	recorder := NewRecorder(file, options)
	recorder.closer = file
	return recorder, nil
}

// Outbound records bytes written to the remote.
func (r *Recorder) Outbound(data []byte) {
	r.record(Outbound, data)
}

// Inbound records bytes read from the remote.
func (r *Recorder) Inbound(data []byte) {
	r.record(Inbound, data)
}

func (r *Recorder) record(direction Direction, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	record := Record{Direction: direction, At: r.options.Clock.Now(), Data: data}
	if err := r.writeLocked(record); err != nil {
		r.err = err
		r.options.Logger.Error("wire trace stopped", "error", err, "records", r.records)
		return
	}
	r.records++
}

func (r *Recorder) writeLocked(record Record) error {
	raw, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding trace record: %w", err)
	}
	stored, compression, err := compress(raw, r.options.Compression)
	if err != nil {
		return err
	}
	frame := make([]byte, headerSize, headerSize+len(stored))
	frame[0] = byte(compression)
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(raw)))
	binary.BigEndian.PutUint32(frame[5:9], uint32(len(stored)))
	frame = append(frame, stored...)
	if _, err := r.writer.Write(frame); err != nil {
		return fmt.Errorf("writing trace record: %w", err)
	}
	return nil
}

// Records returns how many records have been written.
func (r *Recorder) Records() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close stops recording and closes the file opened by Create. It
// returns the first write error if there was one.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.err
	if r.err == nil {
		r.err = errors.New("recorder closed")
	}
	if r.closer != nil {
		err = errors.Join(err, r.closer.Close())
		r.closer = nil
	}
	return err
}

// ReadAll decodes every record in a trace.
func ReadAll(reader io.Reader) ([]Record, error) {
	var records []Record
	header := make([]byte, headerSize)
	for {
		if _, err := io.ReadFull(reader, header); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, fmt.Errorf("reading record %d header: %w", len(records), err)
		}
		compression := Compression(header[0])
		rawSize := binary.BigEndian.Uint32(header[1:5])
		storedSize := binary.BigEndian.Uint32(header[5:9])
		if rawSize > maxRecordSize || storedSize > maxRecordSize {
			return records, fmt.Errorf("record %d: implausible size (raw %d, stored %d)", len(records), rawSize, storedSize)
		}
		stored := make([]byte, storedSize)
		if _, err := io.ReadFull(reader, stored); err != nil {
			return records, fmt.Errorf("reading record %d body: %w", len(records), err)
		}
		raw, err := decompress(stored, compression, int(rawSize))
		if err != nil {
			return records, fmt.Errorf("record %d: %w", len(records), err)
		}
		var record Record
		if err := codec.Unmarshal(raw, &record); err != nil {
			return records, fmt.Errorf("decoding record %d: %w", len(records), err)
		}
		records = append(records, record)
	}
}

// ReadFile decodes the trace at path.
func ReadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadAll(file)
}

// InboundStream returns the concatenated bytes of the inbound records, in
// order: the stream the remote sent.
func InboundStream(records []Record) []byte {
	var buffer bytes.Buffer
	for _, record := range records {
		if record.Direction == Inbound {
			buffer.Write(record.Data)
		}
	}
	return buffer.Bytes()
}
