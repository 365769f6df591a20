// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package correlate

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bureau-foundation/simlink/dzrp"
	"github.com/bureau-foundation/simlink/transport"
)

// DefaultFrameTimeout bounds every DZRP request.
const DefaultFrameTimeout = 3 * time.Second

// FrameOptions configures a FrameEngine.
type FrameOptions struct {
	Options

	// Timeout bounds each request once dispatched. Zero selects
	// DefaultFrameTimeout; NoTimeout disables it.
	Timeout time.Duration
}

// FrameEngine correlates DZRP requests and responses by sequence
// number.
type FrameEngine struct {
	*Engine

	decoder   dzrp.FrameDecoder
	sequencer dzrp.Sequencer
	timeout   time.Duration
}

// NewFrame returns a DZRP engine on link. Call Run to start I/O.
func NewFrame(link transport.Link, options FrameOptions) *FrameEngine {
	f := &FrameEngine{
		Engine:  newEngine(link, options.Options),
		timeout: resolveTimeout(options.Timeout, DefaultFrameTimeout),
	}
	f.inbound = f.handleInbound
	f.describe = hex.EncodeToString
	return f
}

// Send queues a request. callback receives the response payload
// without the sequence byte; it may be nil. Requests are never
// coalesced.
func (f *FrameEngine) Send(opcode dzrp.Opcode, payload []byte, callback func(payload []byte)) error {
	var pending actions
	f.mu.Lock()
	if f.finished {
		err := f.err
		f.mu.Unlock()
		return err
	}
	sequence := f.sequencer.Next()
	c := &command{
		label:    fmt.Sprintf("%s seq=%d", opcode, sequence),
		payload:  dzrp.EncodeRequest(sequence, opcode, payload),
		timeout:  f.timeout,
		sequence: sequence,
	}
	if callback != nil {
		c.callbacks = []Callback{func(unit Unit) { callback(unit.Payload) }}
	} else {
		c.callbacks = []Callback{func(Unit) {}}
	}
	f.queue.enqueue(c, false)
	f.noteDepthLocked(&pending)
	f.dispatchLocked(&pending)
	f.mu.Unlock()

	pending.run()
	return nil
}

// Call sends a request and waits for its response payload.
func (f *FrameEngine) Call(ctx context.Context, opcode dzrp.Opcode, payload []byte) ([]byte, error) {
	result := make(chan []byte, 1)
	if err := f.Send(opcode, payload, func(response []byte) { result <- response }); err != nil {
		return nil, err
	}
	select {
	case response := <-result:
		return response, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.Done():
		select {
		case response := <-result:
			return response, nil
		default:
			return nil, f.Err()
		}
	}
}

func (f *FrameEngine) handleInbound(data []byte, pending *actions) error {
	if len(data) == 0 {
		f.logger.Warn("ignoring empty read from remote", "depth", f.queue.len())
		return nil
	}
	bodies, decodeErr := f.decoder.Decode(data)
	for _, body := range bodies {
		response := dzrp.ParseResponse(body)
		if response.IsNotification() {
			f.notifyLocked(response, pending)
			continue
		}

		c := f.queue.inFlight()
		if c == nil {
			return &DesyncError{Got: response.Sequence}
		}
		if c.sequence != response.Sequence {
			return &DesyncError{InFlight: true, Want: c.sequence, Got: response.Sequence}
		}
		f.completeLocked(c, pending)
		unit := Unit{Kind: UnitResponse, Sequence: response.Sequence, Payload: response.Payload}
		for _, callback := range c.callbacks {
			pending.add(func() { callback(unit) })
		}
		f.dispatchLocked(pending)
	}
	if decodeErr != nil {
		return &DesyncError{Err: decodeErr}
	}
	return nil
}

func (f *FrameEngine) notifyLocked(response dzrp.Response, pending *actions) {
	notification, err := dzrp.ParseNotification(response.Payload)
	if err != nil {
		f.logger.Warn("ignoring malformed notification", "error", err)
		return
	}
	if notification.Kind != dzrp.NotificationPause {
		f.logger.Warn("ignoring unknown notification", "kind", notification.Kind)
		return
	}
	f.logger.Debug("remote stopped",
		"reason", notification.Reason.String(),
		"address", fmt.Sprintf("0x%04X", notification.Address),
		"text", notification.Text)
	if f.sink != nil {
		sink := f.sink
		pending.add(func() { sink.OnStop(notification.Reason, notification.Address, notification.Text) })
	}
}
