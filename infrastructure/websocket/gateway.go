// Package websocket is the connection gateway: it upgrades HTTP requests to
// WebSocket sessions and wires their inbound frames to the relay.
package websocket

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/sink"
)

type Gateway struct {
	log                  *slog.Logger
	service              contract.IRelayService
	upgrader             websocket.Upgrader
	connectionBufferSize int
	backlogLimit         int
}

// NewGateway builds the gateway. backlogLimit is how many recent messages a
// freshly connected session is caught up with before receiving live traffic;
// zero disables the replay. It must not exceed connectionBufferSize or the
// replay itself would overflow the session sink.
func NewGateway(log *slog.Logger, service contract.IRelayService,
	connectionBufferSize, backlogLimit int) *Gateway {
	if backlogLimit > connectionBufferSize {
		backlogLimit = connectionBufferSize
	}
	return &Gateway{
		log:     log,
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Access control is out of scope: any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		connectionBufferSize: connectionBufferSize,
		backlogLimit:         backlogLimit,
	}
}

// Handler returns the HTTP endpoint clients connect to.
func (g *Gateway) Handler() http.Handler {
	return http.HandlerFunc(g.handleConnect)
}

// handleConnect accepts one transport connection, creates its session, and
// registers it with the relay. It never blocks on the store: the backlog
// replay reads only and live messages flow through the relay loop.
func (g *Gateway) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	id := domain.SessionID(uuid.NewString())
	sessionSink := sink.NewSessionSink(g.connectionBufferSize)
	c := newClient(id, conn, sessionSink, g.service, g.log)

	// Catch-up happens before the session joins the registry, so replayed
	// messages always precede live ones in the session's sink.
	g.replayBacklog(r.Context(), sessionSink)

	g.service.Join(id, sessionSink)
	c.connected()
	c.run()

	g.log.Info("Session connected", "session_id", id, "remote_addr", r.RemoteAddr)
}

func (g *Gateway) replayBacklog(ctx context.Context, s *sink.SessionSink) {
	if g.backlogLimit == 0 {
		return
	}
	messages, err := g.service.Recent(g.backlogLimit)
	if err != nil {
		g.log.Error("Backlog replay failed", "error", err)
		return
	}
	for _, message := range messages {
		if err := s.Consume(ctx, event.MessageStored{Message: message}); err != nil {
			g.log.Warn("Backlog replay interrupted", "error", err)
			return
		}
	}
}
