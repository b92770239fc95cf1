package event

import (
	"chat-relay/domain"
)

// DomainEvent is anything the relay pushes to connected sessions.
type DomainEvent interface {
	Kind() string
}

// MessageStored is emitted after a message has been durably appended.
// It is fanned out to every registered session, sender included.
type MessageStored struct {
	Message domain.Message
}

func (MessageStored) Kind() string { return "message" }

// Rejected is delivered to the originating session only, when its message
// could not be accepted or persisted. Nothing is broadcast in that case.
type Rejected struct {
	Session domain.SessionID
	Code    string // "validation" or "store"
	Reason  string
}

func (Rejected) Kind() string { return "error" }
