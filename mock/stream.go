package mock

import (
	"io"

	"github.com/fwojciec/ckassist"
)

// Interface compliance check.
var _ ckassist.Stream = (*Stream)(nil)

// Stream is a test double for ckassist.Stream.
// Set the function fields for the methods you need. NextFn and MessageFn
// panic when nil to catch missing setup. CloseFn and StateFn are nil-safe
// (no-op and zero value) because callers commonly defer stream.Close().
type Stream struct {
	NextFn    func() (ckassist.Event, error)
	StateFn   func() ckassist.StreamState
	MessageFn func() (ckassist.AssistantMessage, error)
	CloseFn   func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (ckassist.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() ckassist.StreamState {
	if s.StateFn == nil {
		return ckassist.StreamStateNew
	}
	return s.StateFn()
}

// Message delegates to MessageFn.
func (s *Stream) Message() (ckassist.AssistantMessage, error) {
	return s.MessageFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// CompletedStream returns a stream that emits events in order, then signals
// completion and returns msg.
func CompletedStream(msg ckassist.AssistantMessage, events ...ckassist.Event) *Stream {
	i := 0
	return &Stream{
		NextFn: func() (ckassist.Event, error) {
			if i >= len(events) {
				return nil, io.EOF
			}
			evt := events[i]
			i++
			return evt, nil
		},
		StateFn: func() ckassist.StreamState {
			if i >= len(events) {
				return ckassist.StreamStateComplete
			}
			return ckassist.StreamStateStreaming
		},
		MessageFn: func() (ckassist.AssistantMessage, error) {
			return msg, nil
		},
	}
}
