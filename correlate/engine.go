// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package correlate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/simlink/lib/clock"
	"github.com/bureau-foundation/simlink/lib/netutil"
	"github.com/bureau-foundation/simlink/transport"
)

// readBufferSize is the size of each link read. Console responses and
// DZRP frames are reassembled across reads, so this only bounds
// latency, not message size.
const readBufferSize = 4096

// Options configures the parts of an engine shared by both protocols.
type Options struct {
	// Logger receives structured logs. Wire bytes are logged at debug.
	// Nil discards.
	Logger *slog.Logger

	// Clock drives command deadlines. Nil uses the real clock.
	Clock clock.Clock

	// Sink receives stop notifications and the connection failure.
	// Optional.
	Sink Sink

	// Tap observes raw link traffic. Optional.
	Tap Tap

	// OnQueueChange is called with the queue depth after every change
	// in depth. It runs outside the engine lock.
	OnQueueChange func(depth int)
}

// actions collects work to run after the engine lock is released:
// completion callbacks, sink events, and queue-change notifications.
type actions []func()

func (a *actions) add(f func()) { *a = append(*a, f) }

func (a actions) run() {
	for _, f := range a {
		f()
	}
}

// Engine is the protocol-independent half of a correlation engine: the
// pending queue, the deadline supervisor, and the link goroutines. It
// is embedded by TextEngine and FrameEngine, which supply decoding and
// correlation.
type Engine struct {
	link          transport.Link
	logger        *slog.Logger
	sink          Sink
	tap           Tap
	onQueueChange func(depth int)

	// inbound decodes data and correlates the resulting units. Called
	// with mu held. A returned error fails the connection.
	inbound func(data []byte, pending *actions) error

	// describe renders wire bytes for debug logs.
	describe func(data []byte) string

	mu         sync.Mutex
	queue      queue
	supervisor supervisor
	writes     [][]byte
	finished   bool
	err        error

	writeReady chan struct{}
	done       chan struct{}
}

func newEngine(link transport.Link, options Options) *Engine {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	engineClock := options.Clock
	if engineClock == nil {
		engineClock = clock.Real()
	}
	e := &Engine{
		link:          link,
		logger:        logger,
		sink:          options.Sink,
		tap:           options.Tap,
		onQueueChange: options.OnQueueChange,
		writeReady:    make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
	e.supervisor = supervisor{clock: engineClock, expire: e.expire}
	return e
}

// Run reads from and writes to the link until the engine stops. It
// returns nil after Close or cancellation of ctx, and the connection
// error otherwise. Run must be called at most once.
func (e *Engine) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(e.readLoop)
	group.Go(e.writeLoop)
	group.Go(func() error {
		select {
		case <-groupCtx.Done():
			e.Close()
		case <-e.done:
		}
		return nil
	})
	group.Wait()

	if err := e.Err(); !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}

// Close stops the engine, clears the queue without invoking callbacks,
// and closes the link. Pending Calls return ErrClosed.
func (e *Engine) Close() error {
	e.terminate(nil)
	return nil
}

// Done is closed when the engine stops.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Err returns why the engine stopped: ErrClosed after Close, the
// connection error after a failure, nil while running.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Depth returns the number of queued commands, dispatched or not.
func (e *Engine) Depth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.len()
}

// InFlight returns the number of dispatched commands awaiting a
// response: 0 or 1.
func (e *Engine) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.dispatchedCount()
}

// Feed processes bytes received from the link. The reader goroutine
// calls it for every read; tests may call it directly.
func (e *Engine) Feed(data []byte) {
	if e.tap != nil {
		e.tap.Inbound(data)
	}
	if e.logger.Enabled(context.Background(), slog.LevelDebug) {
		e.logger.Debug("<=", "data", e.describe(data))
	}

	var pending actions
	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return
	}
	err := e.inbound(data, &pending)
	if err == nil {
		e.dispatchLocked(&pending)
	}
	e.mu.Unlock()

	pending.run()
	if err != nil {
		e.terminate(err)
	}
}

// submit queues a command and dispatches if possible.
func (e *Engine) submit(c *command, coalesce bool) error {
	var pending actions
	e.mu.Lock()
	if e.finished {
		err := e.err
		e.mu.Unlock()
		return err
	}
	if e.queue.enqueue(c, coalesce) {
		e.logger.Debug("coalesced command", "command", c.label, "depth", e.queue.len())
	} else {
		e.noteDepthLocked(&pending)
	}
	e.dispatchLocked(&pending)
	e.mu.Unlock()

	pending.run()
	return nil
}

// dispatchLocked writes every command that may be sent now: any leading
// noResponse entries and at most one command that awaits a response.
func (e *Engine) dispatchLocked(pending *actions) {
	for {
		c := e.queue.next()
		if c == nil {
			return
		}
		e.writes = append(e.writes, c.payload)
		select {
		case e.writeReady <- struct{}{}:
		default:
		}
		e.logger.Debug("dispatched command", "command", c.label, "depth", e.queue.len())
		if c.noResponse {
			e.noteDepthLocked(pending)
			continue
		}
		e.supervisor.arm(c.label, c.timeout)
		return
	}
}

// completeLocked removes a matched command and cancels its deadline.
func (e *Engine) completeLocked(c *command, pending *actions) {
	e.supervisor.cancel()
	e.queue.remove(c)
	e.noteDepthLocked(pending)
}

func (e *Engine) noteDepthLocked(pending *actions) {
	if e.onQueueChange == nil {
		return
	}
	depth := e.queue.len()
	pending.add(func() { e.onQueueChange(depth) })
}

func (e *Engine) expire(generation uint64, label string, timeout time.Duration) {
	e.mu.Lock()
	if e.finished || generation != e.supervisor.generation {
		e.mu.Unlock()
		return
	}
	cause := &TimeoutError{Label: label, Timeout: timeout}
	e.finishLocked(cause)
	e.mu.Unlock()
	e.afterFinish(cause)
}

// terminate stops the engine once. A nil cause is a local close.
func (e *Engine) terminate(cause error) {
	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return
	}
	e.finishLocked(cause)
	e.mu.Unlock()
	e.afterFinish(cause)
}

func (e *Engine) finishLocked(cause error) {
	e.finished = true
	e.err = cause
	if cause == nil {
		e.err = ErrClosed
	}
	e.supervisor.cancel()
	if dropped := e.queue.clear(); dropped > 0 {
		e.logger.Debug("dropped pending commands", "count", dropped)
	}
	e.writes = nil
}

func (e *Engine) afterFinish(cause error) {
	close(e.done)
	e.link.Close()
	if e.onQueueChange != nil {
		e.onQueueChange(0)
	}
	if cause == nil {
		e.logger.Debug("engine closed")
		return
	}
	if errors.Is(cause, ErrConnectionLost) {
		e.logger.Info("connection to simulator lost", "error", cause)
	} else {
		e.logger.Error("connection failed", "error", cause)
	}
	if e.sink != nil {
		e.sink.OnProtocolError(cause)
	}
}

func (e *Engine) isDone() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

func (e *Engine) readLoop() error {
	buffer := make([]byte, readBufferSize)
	for {
		n, err := e.link.Read(buffer)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buffer[:n])
			e.Feed(data)
		}
		if err != nil {
			if e.isDone() {
				return nil
			}
			if netutil.IsExpectedCloseError(err) {
				err = fmt.Errorf("%w: %w", ErrConnectionLost, err)
			} else {
				err = fmt.Errorf("%w: reading: %w", ErrConnectionLost, err)
			}
			e.terminate(err)
			return err
		}
		if e.isDone() {
			return nil
		}
	}
}

func (e *Engine) writeLoop() error {
	for {
		select {
		case <-e.writeReady:
		case <-e.done:
			return nil
		}

		e.mu.Lock()
		batch := e.writes
		e.writes = nil
		e.mu.Unlock()

		for _, data := range batch {
			if e.logger.Enabled(context.Background(), slog.LevelDebug) {
				e.logger.Debug("=>", "data", e.describe(data))
			}
			if _, err := e.link.Write(data); err != nil {
				if e.isDone() {
					return nil
				}
				err = fmt.Errorf("%w: writing: %w", ErrConnectionLost, err)
				e.terminate(err)
				return err
			}
			if e.tap != nil {
				e.tap.Outbound(data)
			}
		}
	}
}
