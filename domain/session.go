package domain

// SessionID identifies one live client connection.
type SessionID string

// SessionState tracks the lifecycle of a connection.
// Transitions are strictly forward: Connecting -> Connected -> Disconnecting -> Closed.
// No transition skips Disconnecting, and no inbound event is processed
// once Disconnecting begins.
type SessionState int32

const (
	Connecting SessionState = iota
	Connected
	Disconnecting
	Closed
)

func (s SessionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
