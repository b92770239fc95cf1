package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/sink"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

// client binds one WebSocket connection to a session: it owns the read and
// write pumps and walks the session through
// connecting -> connected -> disconnecting -> closed.
type client struct {
	id      domain.SessionID
	conn    *websocket.Conn
	sink    *sink.SessionSink
	service contract.IRelayService
	log     *slog.Logger

	state    atomic.Int32
	shutOnce sync.Once
}

func newClient(id domain.SessionID, conn *websocket.Conn, s *sink.SessionSink,
	service contract.IRelayService, log *slog.Logger) *client {
	c := &client{id: id, conn: conn, sink: s, service: service, log: log}
	c.state.Store(int32(domain.Connecting))
	return c
}

func (c *client) currentState() domain.SessionState {
	return domain.SessionState(c.state.Load())
}

// connected marks the handshake complete; inbound frames are processed only
// from this point on.
func (c *client) connected() {
	c.state.CompareAndSwap(int32(domain.Connecting), int32(domain.Connected))
}

// run starts both pumps. It returns immediately; the pumps own the
// connection from here and tear the session down when either stops.
func (c *client) run() {
	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer c.shutdown()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("Unexpected close", "session_id", c.id, "error", err)
			}
			return
		}
		// Once disconnecting begins no further inbound frames are processed.
		if c.currentState() != domain.Connected {
			return
		}
		c.handleFrame(raw)
	}
}

// handleFrame parses and validates one inbound frame, then queues it for the
// relay loop. Malformed frames are reported to this session only.
func (c *client) handleFrame(raw []byte) {
	var frame sendMessageFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.reject("validation", fmt.Sprintf("malformed frame: %v", err))
		return
	}
	if err := validate.Struct(frame); err != nil {
		c.reject("validation", err.Error())
		return
	}

	cmd := domain.PostMessageCommand{Session: c.id, Author: frame.Author, Body: frame.Body}
	if err := c.service.Send(cmd); err != nil {
		code := "store"
		if errors.IsValidation(err) {
			code = "validation"
		}
		c.reject(code, err.Error())
	}
}

// reject pushes an error event through this session's own sink so that all
// outbound traffic, errors included, flows through the single write pump.
func (c *client) reject(code, reason string) {
	evt := event.Rejected{Session: c.id, Code: code, Reason: reason}
	if err := c.sink.Consume(context.Background(), evt); err != nil {
		c.log.Warn("Dropping rejection", "session_id", c.id, "error", err)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case evt, ok := <-c.sink.Events:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.writeEvent(evt); err != nil {
				c.log.Debug("Write failed", "session_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) writeEvent(evt event.DomainEvent) error {
	switch e := evt.(type) {
	case event.MessageStored:
		return c.conn.WriteJSON(toMessageFrame(e.Message))
	case event.Rejected:
		return c.conn.WriteJSON(toErrorFrame(e))
	default:
		c.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
		return nil
	}
}

// shutdown walks the session to closed exactly once: leave the registry,
// release the sink, close the socket. In-flight relay work for this session
// completes on its own; the relay simply stops finding the sink.
func (c *client) shutdown() {
	c.shutOnce.Do(func() {
		c.state.Store(int32(domain.Disconnecting))
		c.service.Leave(c.id)
		c.sink.Close()
		_ = c.conn.Close()
		c.state.Store(int32(domain.Closed))
		c.log.Info("Session closed", "session_id", c.id)
	})
}
