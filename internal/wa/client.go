// ABOUTME: Client interface and chat types for the WhatsApp automation client.
// ABOUTME: All relay components depend on this contract, never on a concrete client.

package wa

import "context"

// Chat identifies a WhatsApp conversation. JID is the stable serialized
// identifier; Name is the chat's stored name and Alias the contact's push
// name, either of which a caller may know it by.
type Chat struct {
	JID   string
	Name  string
	Alias string
}

// Client is the surface of the external WhatsApp automation client that the
// relay uses. Implementations emit Events to every registered handler.
//
// A Client instance is single-use: after Destroy it must not be reused. The
// session controller owns the only live instance and replaces it wholesale
// on forced logout.
type Client interface {
	// Connect starts the client session. If no credentials are stored it
	// triggers QR pairing, emitting QREvents until the code is scanned.
	Connect(ctx context.Context) error

	// Destroy tears the client down and releases its resources.
	Destroy() error

	// Ready reports whether the client is connected and authenticated.
	Ready() bool

	// Chats returns all conversations currently known to the session.
	// This is an expensive call; callers are expected to cache results.
	Chats(ctx context.Context) ([]Chat, error)

	// Send delivers a text message to the chat identified by jid.
	Send(ctx context.Context, jid string, text string) error

	// AddEventHandler registers a handler for lifecycle events. Handlers
	// are invoked sequentially in registration order.
	AddEventHandler(handler func(Event))
}

// Factory builds a fresh Client. The session controller calls it once at
// startup and again each time a forced logout requires a replacement
// instance.
type Factory func() (Client, error)
