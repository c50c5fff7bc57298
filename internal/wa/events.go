// ABOUTME: Lifecycle events emitted by a Client and the disconnect reason taxonomy.
// ABOUTME: Forced-logout reasons trigger client recreation in the session controller.

package wa

// Event is a marker interface for client lifecycle events.
type Event interface {
	isEvent()
}

// QREvent carries a pairing code that must be scanned to authenticate.
type QREvent struct {
	Code string
}

// AuthenticatedEvent fires when the session credentials are accepted.
type AuthenticatedEvent struct{}

// ReadyEvent fires when the client is fully connected and can send messages.
type ReadyEvent struct{}

// AuthFailureEvent fires when authentication fails and a fresh pairing code
// is required.
type AuthFailureEvent struct {
	Reason string
}

// DisconnectedEvent fires when the session drops. Cached chat handles are
// invalid once this fires.
type DisconnectedEvent struct {
	Reason DisconnectReason
}

func (QREvent) isEvent()            {}
func (AuthenticatedEvent) isEvent() {}
func (ReadyEvent) isEvent()         {}
func (AuthFailureEvent) isEvent()   {}
func (DisconnectedEvent) isEvent()  {}

// DisconnectReason classifies why a session dropped.
type DisconnectReason string

const (
	// ReasonLogout means the account was logged out from the phone.
	ReasonLogout DisconnectReason = "logout"
	// ReasonNavigation means another client took over the session.
	ReasonNavigation DisconnectReason = "navigation"
	// ReasonStream means the transport dropped; the client reconnects on
	// its own with the stored credentials.
	ReasonStream DisconnectReason = "stream"
	// ReasonUnknown covers everything else.
	ReasonUnknown DisconnectReason = "unknown"
)

// ForcedLogout reports whether the reason invalidates the stored session,
// requiring the controller to recreate the client and re-pair.
func (r DisconnectReason) ForcedLogout() bool {
	return r == ReasonLogout || r == ReasonNavigation
}
