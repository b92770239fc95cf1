package runtime

import (
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
)

// Registry is the set of currently connected sessions, keyed by session id.
// Membership changes only through Subscribe and Unsubscribe.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.SessionID]contract.EventSink),
	}
}

// Subscribe registers a session's sink. Subscribing the same id twice
// replaces the prior sink, so a session never receives duplicate deliveries.
func (r *Registry) Subscribe(id domain.SessionID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = sink
}

// Unsubscribe removes a session. Removing an unknown id is a no-op.
func (r *Registry) Unsubscribe(id domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get resolves a single session's sink, if still connected.
func (r *Registry) Get(id domain.SessionID) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[id]
	return sink, ok
}

// ForEach applies fn to a snapshot of the sessions registered at call time.
// Each session receives the callback at most once per invocation. A session
// removed concurrently may or may not be included, but its removal never
// fails the iteration or skips other sessions.
func (r *Registry) ForEach(fn func(id domain.SessionID, sink contract.EventSink)) {
	r.mu.RLock()
	snapshot := make(map[domain.SessionID]contract.EventSink, len(r.sessions))
	for id, sink := range r.sessions {
		snapshot[id] = sink
	}
	r.mu.RUnlock()

	for id, sink := range snapshot {
		fn(id, sink)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
