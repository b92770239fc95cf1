package sink

import (
	"context"
	"sync"

	"chat-relay/domain/event"
	"chat-relay/errors"
)

// SessionSink is one connected session's delivery buffer.
// The relay pushes events into it; the transport handler drains Events and
// writes them to the wire. A full buffer fails the delivery instead of
// blocking the relay loop, which the relay treats as an unreachable session.
type SessionSink struct {
	Events chan event.DomainEvent

	mu     sync.Mutex
	closed bool
}

func NewSessionSink(bufferSize int) *SessionSink {
	return &SessionSink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by the relay fanout.
// It redirects the event through the channel owned by this session;
// the transport handler takes it from there.
func (s *SessionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrSinkClosed
	}
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.ErrSinkFull
	}
}

// Close marks the sink unusable and releases its channel. Safe to call more
// than once; a Consume racing with Close fails cleanly instead of panicking.
func (s *SessionSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.Events)
}
