// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wiretrace

import (
	"bytes"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/simlink/console"
	"github.com/bureau-foundation/simlink/correlate"
	"github.com/bureau-foundation/simlink/lib/clock"
)

var _ correlate.Tap = (*Recorder)(nil)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	dump := []byte(strings.Repeat("0100:\t00\r\n", 200))
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			t.Parallel()

			fakeClock := clock.Fake(epoch)
			var buffer bytes.Buffer
			recorder := NewRecorder(&buffer, Options{Compression: compression, Clock: fakeClock})

			recorder.Outbound([]byte("examine 0100-01C7\n#\n"))
			fakeClock.Advance(time.Millisecond)
			recorder.Inbound(dump)
			recorder.Inbound([]byte("sim> "))
			if err := recorder.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if recorder.Records() != 3 {
				t.Fatalf("Records = %d, want 3", recorder.Records())
			}

			records, err := ReadAll(&buffer)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			want := []Record{
				{Outbound, epoch, []byte("examine 0100-01C7\n#\n")},
				{Inbound, epoch.Add(time.Millisecond), dump},
				{Inbound, epoch.Add(time.Millisecond), []byte("sim> ")},
			}
			if len(records) != len(want) {
				t.Fatalf("read %d records, want %d", len(records), len(want))
			}
			for i := range want {
				got := records[i]
				if got.Direction != want[i].Direction || !got.At.Equal(want[i].At) || !bytes.Equal(got.Data, want[i].Data) {
					t.Errorf("record %d = %v %v %q, want %v %v %q", i,
						got.Direction, got.At, got.Data, want[i].Direction, want[i].At, want[i].Data)
				}
			}
		})
	}
}

func TestCompressionFallsBackForSmallRecords(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	recorder := NewRecorder(&buffer, Options{Compression: CompressionZstd, Clock: clock.Fake(epoch)})
	recorder.Inbound([]byte("#"))

	if tag := Compression(buffer.Bytes()[0]); tag != CompressionNone {
		t.Errorf("one-byte record stored as %v, want none", tag)
	}
}

func TestCompressionUsedForLargeRecords(t *testing.T) {
	t.Parallel()

	for _, compression := range []Compression{CompressionLZ4, CompressionZstd} {
		var buffer bytes.Buffer
		recorder := NewRecorder(&buffer, Options{Compression: compression, Clock: clock.Fake(epoch)})
		data := bytes.Repeat([]byte("Simulator Running\r\n"), 100)
		recorder.Inbound(data)

		if tag := Compression(buffer.Bytes()[0]); tag != compression {
			t.Errorf("record stored as %v, want %v", tag, compression)
		}
		if buffer.Len() >= len(data) {
			t.Errorf("%v: stored %d bytes for %d bytes of data", compression, buffer.Len(), len(data))
		}
	}
}

func TestReplayInboundThroughChunker(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	recorder := NewRecorder(&buffer, Options{Compression: CompressionLZ4, Clock: clock.Fake(epoch)})
	for _, chunk := range []string{"AF: 70", "08\nBC: 0200\nsi", "m>step\nPC: 0101\nsim>"} {
		recorder.Inbound([]byte(chunk))
	}
	recorder.Outbound([]byte("step\n#\n"))

	records, err := ReadAll(&buffer)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	units, rest := console.ChunkResponse(string(InboundStream(records)))
	want := []string{"AF: 7008\nBC: 0200", "step\nPC: 0101"}
	if !slices.Equal(units, want) || rest != "" {
		t.Fatalf("replayed units %q rest %q, want %q", units, rest, want)
	}
}

func TestReadAllErrors(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	recorder := NewRecorder(&buffer, Options{Clock: clock.Fake(epoch)})
	recorder.Inbound([]byte("sim> "))
	valid := buffer.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated header", valid[:4]},
		{"truncated body", valid[:len(valid)-1]},
		{"unknown compression", append([]byte{9}, valid[1:]...)},
		{"implausible size", []byte{0, 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0}},
		{"size mismatch", append([]byte{0, 0, 0, 0, 1}, valid[5:]...)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ReadAll(bytes.NewReader(test.data)); err == nil {
				t.Fatal("ReadAll accepted a corrupt trace")
			}
		})
	}

	if records, err := ReadAll(bytes.NewReader(nil)); err != nil || len(records) != 0 {
		t.Errorf("empty trace: %v, %v", records, err)
	}
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("disk full")
}

func TestRecorderStopsAfterWriteError(t *testing.T) {
	t.Parallel()

	writer := &failingWriter{}
	recorder := NewRecorder(writer, Options{Clock: clock.Fake(epoch)})
	recorder.Inbound([]byte("a"))
	recorder.Inbound([]byte("b"))

	if writer.writes != 1 {
		t.Errorf("writes after failure: %d", writer.writes)
	}
	if recorder.Err() == nil {
		t.Error("Err is nil after a failed write")
	}
	if err := recorder.Close(); err == nil {
		t.Error("Close did not report the write failure")
	}
}

func TestCreateAndReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.trace")
	recorder, err := Create(path, Options{Compression: CompressionZstd})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	recorder.Outbound([]byte{0x02, 0, 0, 0, 1, 7})
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Recording after Close is dropped.
	recorder.Inbound([]byte("late"))

	records, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(records) != 1 || records[0].Direction != Outbound {
		t.Fatalf("records = %+v", records)
	}
}

func TestParseCompression(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"none", "lz4", "zstd"} {
		compression, err := ParseCompression(name)
		if err != nil || compression.String() != name {
			t.Errorf("ParseCompression(%q) = %v, %v", name, compression, err)
		}
	}
	if compression, err := ParseCompression(""); err != nil || compression != CompressionNone {
		t.Errorf("ParseCompression(\"\") = %v, %v", compression, err)
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression accepted gzip")
	}
}
