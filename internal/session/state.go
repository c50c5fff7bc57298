// ABOUTME: Session state enum for the lifecycle controller.
// ABOUTME: Unauthenticated -> Authenticating -> Ready -> Disconnected.

package session

// State describes where the WhatsApp session is in its lifecycle.
type State int

const (
	// StateUnauthenticated means no session exists yet.
	StateUnauthenticated State = iota
	// StateAuthenticating means a pairing code has been shown and the
	// controller is waiting for it to be scanned.
	StateAuthenticating
	// StateReady means the session is authenticated and can send messages.
	StateReady
	// StateDisconnected means the session dropped. Depending on the
	// disconnect reason the controller either schedules a client rebuild
	// or stays here until external intervention.
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
