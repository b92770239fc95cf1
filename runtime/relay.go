// Package runtime handles event propagation between connected sessions.
// It orchestrates the relay without containing transport or storage logic.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
)

// Relay is the broadcast coordinator. Commands from all sessions funnel into
// a single buffered channel drained by one supervised goroutine, so each
// append-then-fanout sequence runs to completion before the next one starts.
// That single-writer loop is what preserves per-sender message ordering.
type Relay struct {
	log          *slog.Logger
	store        contract.IMessageStore
	registry     *Registry
	commands     chan domain.PostMessageCommand
	storeTimeout time.Duration
	sinkTimeout  time.Duration
}

func NewRelay(log *slog.Logger, store contract.IMessageStore, registry *Registry,
	bufferSize int, storeTimeout, sinkTimeout time.Duration) *Relay {
	return &Relay{
		log:          log,
		store:        store,
		registry:     registry,
		commands:     make(chan domain.PostMessageCommand, bufferSize),
		storeTimeout: storeTimeout,
		sinkTimeout:  sinkTimeout,
	}
}

// Dispatch queues a command for the relay loop. It never blocks the caller:
// when the queue is full the command is rejected and the sender alone is
// told, so a slow store cannot stall connection handling.
func (r *Relay) Dispatch(cmd domain.PostMessageCommand) error {
	select {
	case r.commands <- cmd:
		return nil
	default:
		r.log.Warn("Command queue full, rejecting message", "session_id", cmd.Session)
		return errors.ErrRelayBusy
	}
}

// QueueDepth reports how many commands are waiting in the relay loop.
func (r *Relay) QueueDepth() int { return len(r.commands) }

// Run drains the command queue until the context is canceled.
// An in-flight command runs to completion even during shutdown.
func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case cmd := <-r.commands:
			r.handleIncoming(ctx, cmd)
		case <-ctx.Done():
			r.log.Debug("Context done, stopping relay loop")
			return nil
		}
	}
}

// handleIncoming persists the message, then fans it out to every registered
// session, sender included. On store failure nothing is broadcast: only the
// originating session is told. A message is therefore never observed by any
// session before it has been durably appended.
func (r *Relay) handleIncoming(ctx context.Context, cmd domain.PostMessageCommand) {
	storeCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	message, err := r.store.Append(storeCtx, cmd.Author, cmd.Body)
	if err != nil {
		r.reportToSender(ctx, cmd.Session, err)
		return
	}
	r.fanout(ctx, event.MessageStored{Message: message})
}

// fanout delivers one event to every session registered at call time.
// A failed delivery is isolated: the faulty session is unsubscribed as if it
// had disconnected, and the remaining sessions still receive the event.
func (r *Relay) fanout(ctx context.Context, evt event.DomainEvent) {
	r.registry.ForEach(func(id domain.SessionID, sink contract.EventSink) {
		if err := r.consume(ctx, sink, evt); err != nil {
			r.log.Warn("Dropping unreachable session", "session_id", id, "error", err)
			r.registry.Unsubscribe(id)
		}
	})
}

// reportToSender notifies the originating session only. The session may
// already be gone; a failed message for a vanished sender is just logged.
func (r *Relay) reportToSender(ctx context.Context, id domain.SessionID, cause error) {
	code := "store"
	if errors.IsValidation(cause) {
		code = "validation"
	}
	r.log.Error("Message rejected", "session_id", id, "code", code, "error", cause)

	sink, ok := r.registry.Get(id)
	if !ok {
		return
	}
	failure := event.Rejected{Session: id, Code: code, Reason: cause.Error()}
	if err := r.consume(ctx, sink, failure); err != nil {
		r.log.Warn(fmt.Sprintf("Could not report failure to session %s", id), "error", err)
	}
}

func (r *Relay) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) error {
	sinkCtx, cancel := context.WithTimeout(ctx, r.sinkTimeout)
	defer cancel()
	return sink.Consume(sinkCtx, evt)
}
