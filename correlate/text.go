// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package correlate

import (
	"context"
	"strings"
	"time"

	"github.com/bureau-foundation/simlink/console"
	"github.com/bureau-foundation/simlink/transport"
)

const (
	// DefaultCommandTimeout bounds console commands that do not set
	// their own timeout.
	DefaultCommandTimeout = 5 * time.Second

	// DefaultWelcomeTimeout bounds the wait for the connection banner.
	DefaultWelcomeTimeout = 2 * time.Second
)

// bannerLabel names the synthetic entry that absorbs the banner.
const bannerLabel = "(connection banner)"

// TextOptions configures a TextEngine.
type TextOptions struct {
	Options

	// CommandTimeout applies to requests with a zero Timeout. Zero
	// selects DefaultCommandTimeout; NoTimeout disables it.
	CommandTimeout time.Duration

	// WelcomeTimeout bounds the wait for the banner. Zero selects
	// DefaultWelcomeTimeout; NoTimeout disables it.
	WelcomeTimeout time.Duration

	// NoBanner is set when the remote sends no banner on connect.
	// Commands are then sent immediately.
	NoBanner bool

	// Console receives output that answers no command. Optional.
	Console ConsoleSink

	// RejectionMarker identifies a rejected command. Empty selects
	// console.RejectionMarker.
	RejectionMarker string
}

// TextRequest describes one console command.
type TextRequest struct {
	// Command is the command line, without a line ending.
	Command string

	// Timeout bounds the wait for the response once dispatched. Zero
	// selects the engine's CommandTimeout; NoTimeout never expires.
	Timeout time.Duration

	// NoResponse sends the command without awaiting a response. Such
	// commands bypass the single-command-in-flight gate and are never
	// coalesced.
	NoResponse bool

	// Raw writes Command verbatim, without the line ending and
	// terminator line.
	Raw bool

	// Match recognizes the response. Nil matches any unit that
	// contains Command.
	Match MatchFunc

	// Progress recognizes output that shows the command is still
	// running. Such units are discarded while the command is in
	// flight.
	Progress MatchFunc
}

// TextEngine correlates commands and responses on the SIMH remote
// console protocol.
type TextEngine struct {
	*Engine

	chunker         console.Chunker
	console         ConsoleSink
	commandTimeout  time.Duration
	rejectionMarker string
	connected       chan struct{}
}

// NewText returns a console engine on link. Unless NoBanner is set, the
// engine first waits for the remote's connection banner; commands sent
// meanwhile stay queued. Call Run to start I/O.
func NewText(link transport.Link, options TextOptions) *TextEngine {
	t := &TextEngine{
		Engine:          newEngine(link, options.Options),
		console:         options.Console,
		commandTimeout:  resolveTimeout(options.CommandTimeout, DefaultCommandTimeout),
		rejectionMarker: options.RejectionMarker,
		connected:       make(chan struct{}),
	}
	if t.rejectionMarker == "" {
		t.rejectionMarker = console.RejectionMarker
	}
	t.inbound = t.handleInbound
	t.describe = func(data []byte) string { return string(data) }

	if options.NoBanner {
		close(t.connected)
		return t
	}

	banner := &command{
		label: bannerLabel,
		callbacks: []Callback{func(unit Unit) {
			t.logger.Info("connected to simulator console", "banner", firstLine(unit.Text))
			close(t.connected)
		}},
		dispatched: true,
		match:      func(string) bool { return true },
	}
	t.mu.Lock()
	t.queue.enqueue(banner, false)
	t.supervisor.arm(banner.label, resolveTimeout(options.WelcomeTimeout, DefaultWelcomeTimeout))
	t.mu.Unlock()
	return t
}

// resolveTimeout maps a configured timeout to the armed deadline: zero
// selects fallback, NoTimeout (or any negative value) disables.
func resolveTimeout(timeout, fallback time.Duration) time.Duration {
	switch {
	case timeout == 0:
		return fallback
	case timeout < 0:
		return 0
	default:
		return timeout
	}
}

// Connected is closed once the banner has been received.
func (t *TextEngine) Connected() <-chan struct{} {
	return t.connected
}

// Send queues request. callback receives the response text; it may be
// nil. An identical command that is queued and not yet dispatched
// absorbs the request instead of a second entry being added, and both
// callbacks receive the same response.
//
// A command the remote rejects never invokes callback. Use Call to
// observe rejection.
func (t *TextEngine) Send(request TextRequest, callback func(text string)) error {
	return t.send(request, callback, nil)
}

func (t *TextEngine) send(request TextRequest, callback func(text string), rejected func(text string)) error {
	c := &command{
		label:      request.Command,
		noResponse: request.NoResponse,
		timeout:    resolveTimeout(request.Timeout, t.commandTimeout),
		match:      request.Match,
		progress:   request.Progress,
	}
	if request.Raw {
		c.payload = []byte(request.Command)
	} else {
		c.payload = console.Encode(request.Command)
	}
	if c.match == nil {
		commandText := request.Command
		c.match = func(text string) bool { return strings.Contains(text, commandText) }
	}
	if callback != nil {
		c.callbacks = []Callback{func(unit Unit) { callback(unit.Text) }}
	} else {
		c.callbacks = []Callback{func(Unit) {}}
	}
	if rejected != nil {
		c.rejected = []func(string){rejected}
	}
	return t.submit(c, true)
}

// Call sends request and waits for its response. It returns a
// *RejectedError if the remote rejects the command, ctx.Err() if ctx
// ends first, and the engine's error if the connection stops.
func (t *TextEngine) Call(ctx context.Context, request TextRequest) (string, error) {
	result := make(chan string, 1)
	rejected := make(chan string, 1)
	err := t.send(request,
		func(text string) { result <- text },
		func(text string) { rejected <- text })
	if err != nil {
		return "", err
	}

	select {
	case text := <-result:
		return text, nil
	case text := <-rejected:
		return "", &RejectedError{Command: request.Command, Response: text}
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.Done():
		select {
		case text := <-result:
			return text, nil
		default:
			return "", t.Err()
		}
	}
}

// Interrupt sends the console interrupt byte, stopping a running
// simulation. It does not wait for anything.
func (t *TextEngine) Interrupt() error {
	return t.Send(TextRequest{Command: console.Interrupt, Raw: true, NoResponse: true}, nil)
}

func (t *TextEngine) handleInbound(data []byte, pending *actions) error {
	if len(data) == 0 {
		t.logger.Warn("ignoring empty read from simulator console", "depth", t.queue.len())
		return nil
	}
	for _, text := range t.chunker.Feed(data) {
		t.correlateLocked(Unit{Kind: UnitResponse, Text: text}, pending)
		t.dispatchLocked(pending)
	}
	return nil
}

func (t *TextEngine) correlateLocked(unit Unit, pending *actions) {
	if inFlight := t.queue.inFlight(); inFlight != nil && inFlight.progress != nil && inFlight.progress(unit.Text) {
		t.logger.Debug("command still running", "command", inFlight.label, "output", firstLine(unit.Text))
		return
	}

	c := t.queue.match(unit.Text)
	if c == nil {
		unit.Kind = UnitNotification
		t.logger.Debug("unsolicited console output", "output", unit.Text)
		if t.console != nil {
			consoleSink := t.console
			pending.add(func() { consoleSink.OnConsoleOutput(unit.Text) })
		}
		return
	}
	t.completeLocked(c, pending)

	if strings.Contains(unit.Text, t.rejectionMarker) {
		t.logger.Warn("simulator rejected command", "command", c.label, "response", unit.Text)
		for _, rejected := range c.rejected {
			pending.add(func() { rejected(unit.Text) })
		}
		return
	}
	for _, callback := range c.callbacks {
		pending.add(func() { callback(unit) })
	}
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}
