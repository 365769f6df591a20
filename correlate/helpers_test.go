// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package correlate

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/simlink/dzrp"
	"github.com/bureau-foundation/simlink/lib/clock"
	"github.com/bureau-foundation/simlink/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeLink records writes and blocks reads until it is closed locally
// or hung up by the "remote".
type fakeLink struct {
	writes     chan []byte
	closed     chan struct{}
	hangup     chan struct{}
	closeOnce  sync.Once
	hangupOnce sync.Once
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		writes: make(chan []byte, 512),
		closed: make(chan struct{}),
		hangup: make(chan struct{}),
	}
}

func (l *fakeLink) Read([]byte) (int, error) {
	select {
	case <-l.closed:
		return 0, net.ErrClosed
	case <-l.hangup:
		return 0, io.EOF
	}
}

func (l *fakeLink) Write(p []byte) (int, error) {
	select {
	case <-l.closed:
		return 0, net.ErrClosed
	default:
	}
	l.writes <- append([]byte(nil), p...)
	return len(p), nil
}

func (l *fakeLink) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *fakeLink) hangUp() {
	l.hangupOnce.Do(func() { close(l.hangup) })
}

func (l *fakeLink) isClosed() bool {
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}

// nextWrite returns the next chunk written to the link.
func (l *fakeLink) nextWrite(t *testing.T) []byte {
	t.Helper()
	return testutil.RequireReceive(t, l.writes, "waiting for a write")
}

func (l *fakeLink) expectWrite(t *testing.T, want string) {
	t.Helper()
	if got := string(l.nextWrite(t)); got != want {
		t.Fatalf("write = %q, want %q", got, want)
	}
}

// expectNoWrite fails if anything is written within a short grace
// period.
func (l *fakeLink) expectNoWrite(t *testing.T) {
	t.Helper()
	testutil.RequireNoReceive(t, l.writes, 20*time.Millisecond, "unexpected write")
}

type stopEvent struct {
	reason  dzrp.BreakReason
	address uint16
	text    string
}

// recordingSink records Sink events.
type recordingSink struct {
	mu      sync.Mutex
	stops   []stopEvent
	errors  []error
	output  []string
	failed  chan struct{}
	failure sync.Once
}

func newRecordingSink() *recordingSink {
	return &recordingSink{failed: make(chan struct{})}
}

func (s *recordingSink) OnStop(reason dzrp.BreakReason, address uint16, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops = append(s.stops, stopEvent{reason, address, text})
}

func (s *recordingSink) OnProtocolError(err error) {
	s.mu.Lock()
	s.errors = append(s.errors, err)
	s.mu.Unlock()
	s.failure.Do(func() { close(s.failed) })
}

func (s *recordingSink) OnConsoleOutput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = append(s.output, text)
}

func (s *recordingSink) errorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errors)
}

func (s *recordingSink) firstError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errors) == 0 {
		return nil
	}
	return s.errors[0]
}

func (s *recordingSink) stopEvents() []stopEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stopEvent(nil), s.stops...)
}

func (s *recordingSink) consoleOutput() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.output...)
}

func (s *recordingSink) waitFailed(t *testing.T) {
	t.Helper()
	testutil.RequireClosed(t, s.failed, "waiting for OnProtocolError")
}

// runResult is the outcome of an engine's Run.
type runResult struct {
	result chan error
	once   sync.Once
	err    error
}

// wait returns Run's error, waiting for it to return.
func (r *runResult) wait(t *testing.T) error {
	t.Helper()
	r.once.Do(func() {
		select {
		case r.err = <-r.result:
		case <-time.After(5 * time.Second):
			t.Error("Run did not return")
		}
	})
	return r.err
}

// runEngine starts Run in the background and stops it at test end.
func runEngine(t *testing.T, engine interface {
	Run(context.Context) error
	Close() error
}) *runResult {
	t.Helper()
	run := &runResult{result: make(chan error, 1)}
	go func() { run.result <- engine.Run(context.Background()) }()
	t.Cleanup(func() {
		engine.Close()
		run.wait(t)
	})
	return run
}

// textHarness is a running TextEngine on a fakeLink.
type textHarness struct {
	engine *TextEngine
	link   *fakeLink
	clock  *clock.FakeClock
	sink   *recordingSink
	run    *runResult
}

func startText(t *testing.T, options TextOptions) *textHarness {
	t.Helper()
	link := newFakeLink()
	fakeClock := clock.Fake(epoch)
	sink := newRecordingSink()
	options.Clock = fakeClock
	options.Sink = sink
	options.Console = sink
	engine := NewText(link, options)
	return &textHarness{engine, link, fakeClock, sink, runEngine(t, engine)}
}

// frameHarness is a running FrameEngine on a fakeLink.
type frameHarness struct {
	engine *FrameEngine
	link   *fakeLink
	clock  *clock.FakeClock
	sink   *recordingSink
	run    *runResult
}

func startFrame(t *testing.T, options FrameOptions) *frameHarness {
	t.Helper()
	link := newFakeLink()
	fakeClock := clock.Fake(epoch)
	sink := newRecordingSink()
	options.Clock = fakeClock
	options.Sink = sink
	engine := NewFrame(link, options)
	return &frameHarness{engine, link, fakeClock, sink, runEngine(t, engine)}
}
