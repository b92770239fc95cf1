package websocket

import (
	"time"

	"github.com/go-playground/validator/v10"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

var validate = validator.New()

// sendMessageFrame is the single client-to-server frame.
type sendMessageFrame struct {
	Event  string `json:"event" validate:"required,eq=send-message"`
	Author string `json:"author" validate:"required"`
	Body   string `json:"body" validate:"required"`
}

// messageFrame is pushed to every connected client once a message has been
// durably persisted.
type messageFrame struct {
	Event     string    `json:"event"`
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// errorFrame goes to the originating client only.
type errorFrame struct {
	Event  string `json:"event"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func toMessageFrame(message domain.Message) messageFrame {
	return messageFrame{
		Event:     "message",
		ID:        message.ID.String(),
		Author:    message.Author,
		Body:      message.Body,
		CreatedAt: message.CreatedAt,
	}
}

func toErrorFrame(rejected event.Rejected) errorFrame {
	return errorFrame{
		Event:  "error",
		Code:   rejected.Code,
		Reason: rejected.Reason,
	}
}
