// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package correlate matches commands sent to a simulator with the
// responses that come back over an unframed byte stream.
//
// Commands wait in a FIFO queue. At most one command awaiting a
// response is on the wire at a time; the next is written when the
// previous one is matched. Commands sent with NoResponse (the console
// interrupt byte) skip this gate and leave the queue as soon as they
// are written.
//
// Two engines share the queue, the deadline supervisor, and the link
// goroutines in [Engine]:
//
//   - [TextEngine] speaks the SIMH remote console. Response units come
//     from console.Chunker and are matched by a per-command predicate
//     ([MatchFunc]). A per-command progress predicate discards output
//     that shows a long-running command is still going. Output that
//     matches nothing goes to the [ConsoleSink]. Identical commands
//     queued back to back share one entry.
//   - [FrameEngine] speaks DZRP. A response must carry the sequence
//     number of the command in flight; anything else is a
//     [DesyncError]. Sequence 0 frames are stop notifications for the
//     [Sink].
//
// Connection loss, a command timeout, or desynchronization fails the
// engine: the queue is cleared without invoking callbacks, the link is
// closed, and Sink.OnProtocolError is called once. There is no
// reconnection. A console command the remote rejects is dropped
// without invoking its callback; [TextEngine.Call] reports it as a
// [RejectedError].
//
// Callbacks run on the goroutine that delivered the response, outside
// the engine lock, in the order they were registered. They may send
// further commands.
package correlate
