// Package domain contains core concepts of the relay.
// This file defines Message and related rules.
// Messages are immutable once persisted: append-only, never updated or deleted.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event.
// CreatedAt is assigned by the store at persistence time and is
// non-decreasing in insertion order.
type Message struct {
	ID        uuid.UUID // unique identifier
	Author    string
	Body      string
	CreatedAt time.Time
}
