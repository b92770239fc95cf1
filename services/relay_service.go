package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/runtime"
)

// RelayService is the thin facade the transport layer talks to.
// It hides the relay loop and the registry behind one surface so the
// gateway never touches either directly.
type RelayService struct {
	relay    *runtime.Relay
	registry *runtime.Registry
	store    contract.IMessageStore
}

func NewRelayService(relay *runtime.Relay, registry *runtime.Registry,
	store contract.IMessageStore) *RelayService {
	return &RelayService{relay: relay, registry: registry, store: store}
}

// Send queues a message intent. The sender will receive its own message via
// its sink like any other session, keeping a single source of truth for
// message order and timestamps.
func (s *RelayService) Send(cmd domain.PostMessageCommand) error {
	return s.relay.Dispatch(cmd)
}

// Recent returns the latest persisted messages, oldest first.
func (s *RelayService) Recent(limit int) ([]domain.Message, error) {
	return s.store.Recent(limit)
}

func (s *RelayService) Join(id domain.SessionID, sink contract.EventSink) {
	s.registry.Subscribe(id, sink)
}

func (s *RelayService) Leave(id domain.SessionID) {
	s.registry.Unsubscribe(id)
}
