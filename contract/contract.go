//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// EventSink is one session's inbound side: the relay pushes events into it,
// the transport drains it.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks currently connected sessions.
// Subscribe is idempotent by session id: subscribing twice replaces the sink.
type IRegistry interface {
	Subscribe(id domain.SessionID, sink EventSink)
	Unsubscribe(id domain.SessionID)
	Get(id domain.SessionID) (EventSink, bool)
	ForEach(fn func(id domain.SessionID, sink EventSink))
	Len() int
}

// IMessageStore is the durable append-only message log.
type IMessageStore interface {
	Append(ctx context.Context, author, body string) (domain.Message, error)
	Recent(limit int) ([]domain.Message, error)
}

// IRelayService is the facade the transport layer talks to.
type IRelayService interface {
	Send(cmd domain.PostMessageCommand) error
	Recent(limit int) ([]domain.Message, error)
	Join(id domain.SessionID, sink EventSink)
	Leave(id domain.SessionID)
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
