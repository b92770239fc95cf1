//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/domain"
	"chat-relay/errors"
)

const keyPrefix = "msg:"

// MessageRepository persists messages in BadgerDB, append-only.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger

	// Guards clock monotonicity: CreatedAt never decreases in insertion order
	// even if the wall clock steps backwards.
	mu        sync.Mutex
	lastNanos int64
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

// storedMessage is the on-disk record shape.
type storedMessage struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"createdAt"` // UnixNano
}

// Append validates the inputs, assigns an id and timestamp, and writes the
// record. The key is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     are assigned the same nanosecond.
//
// Validation failures are reported before any write is attempted. Write
// failures wrap ErrStoreWrite; an expired context wraps ErrStoreTimeout.
// No retry happens here: retry policy belongs to the caller.
func (m *MessageRepository) Append(ctx context.Context, author, body string) (domain.Message, error) {
	if strings.TrimSpace(author) == "" {
		return domain.Message{}, errors.ErrEmptyAuthor
	}
	if strings.TrimSpace(body) == "" {
		return domain.Message{}, errors.ErrEmptyBody
	}

	message := domain.Message{
		ID:        uuid.New(),
		Author:    author,
		Body:      body,
		CreatedAt: m.nextTimestamp(),
	}

	key := fmt.Sprintf("%s%019d:%s", keyPrefix, message.CreatedAt.UnixNano(), message.ID)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreWrite, err)
	}

	if err = ctx.Err(); err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return domain.Message{}, errors.ErrStoreTimeout
		}
		return domain.Message{}, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreWrite, err)
	}
	return message, nil
}

// nextTimestamp returns nowUTC, bumped by one nanosecond whenever the wall
// clock did not move forward since the previous append.
func (m *MessageRepository) nextTimestamp() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	nanos := time.Now().UTC().UnixNano()
	if nanos <= m.lastNanos {
		nanos = m.lastNanos + 1
	}
	m.lastNanos = nanos
	return time.Unix(0, nanos).UTC()
}

// Recent retrieves the latest messages using a reverse prefix scan.
// Thanks to the padded timestamp in the key, records are naturally sorted by
// time, so the result is returned oldest first after reversing the scan.
func (m *MessageRepository) Recent(limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(keyPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key, then walk backwards.
		seekKey := append([]byte{}, prefix...)
		seekKey = append(seekKey, []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(byteMessages) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreWrite, err)
	}

	var messages []domain.Message
	for _, b := range byteMessages {
		var stored storedMessage
		if err = json.Unmarshal(b, &stored); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrStoreWrite, err)
		}
		message, err := toMessage(stored)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrStoreWrite, err)
		}
		messages = append(messages, message)
	}
	return lo.Reverse(messages), nil
}

func fromMessage(message domain.Message) storedMessage {
	return storedMessage{
		ID:        message.ID.String(),
		Author:    message.Author,
		Body:      message.Body,
		CreatedAt: message.CreatedAt.UnixNano(),
	}
}

func toMessage(stored storedMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(stored.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		Author:    stored.Author,
		Body:      stored.Body,
		CreatedAt: time.Unix(0, stored.CreatedAt).UTC(),
	}, nil
}
