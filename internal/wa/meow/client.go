// ABOUTME: whatsmeow-backed implementation of the wa.Client contract.
// ABOUTME: Maps whatsmeow lifecycle events and errors onto the relay's taxonomy.

package meow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/2389/wa-relay/internal/wa"
)

// Client adapts a whatsmeow client to the wa.Client contract.
type Client struct {
	cli       *whatsmeow.Client
	container *sqlstore.Container
	logger    *slog.Logger

	mu       sync.Mutex
	handlers []func(wa.Event)
}

// NewFactory returns a wa.Factory building clients whose credentials live in
// a SQLite database at storePath. The session controller calls it again
// after every forced logout.
func NewFactory(storePath string, logger *slog.Logger) wa.Factory {
	return func() (wa.Client, error) {
		return New(storePath, logger)
	}
}

// New builds a client around a fresh whatsmeow instance. Stored credentials,
// if any, are picked up from the session container.
func New(storePath string, logger *slog.Logger) (*Client, error) {
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Dir(storePath), 0755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", storePath)
	container, err := sqlstore.New(ctx, "sqlite3", dsn, waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading device: %w", err)
	}

	c := &Client{
		cli:       whatsmeow.NewClient(device, waLog.Noop),
		container: container,
		logger:    logger.With("component", "wa-client"),
	}
	c.cli.AddEventHandler(c.dispatch)
	return c, nil
}

// Connect starts the session. Without stored credentials whatsmeow emits QR
// events which dispatch translates for the controller.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.cli.Connect(); err != nil {
		return classify(err)
	}
	return nil
}

// Destroy disconnects and closes the session container. The instance must
// not be reused afterwards.
func (c *Client) Destroy() error {
	c.cli.Disconnect()
	return c.container.Close()
}

// Ready reports whether the session is connected with valid credentials.
func (c *Client) Ready() bool {
	return c.cli.IsConnected() && c.cli.IsLoggedIn()
}

// Chats lists all conversations the session knows about: joined groups plus
// direct-message contacts.
func (c *Client) Chats(ctx context.Context) ([]wa.Chat, error) {
	groups, err := c.cli.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", classify(err))
	}

	contacts, err := c.cli.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", classify(err))
	}

	chats := make([]wa.Chat, 0, len(groups)+len(contacts))
	for _, g := range groups {
		chats = append(chats, wa.Chat{
			JID:  g.JID.String(),
			Name: g.Name,
		})
	}
	for jid, info := range contacts {
		chats = append(chats, wa.Chat{
			JID:   jid.String(),
			Name:  info.FullName,
			Alias: info.PushName,
		})
	}
	return chats, nil
}

// Send delivers a text message to the chat identified by jid.
func (c *Client) Send(ctx context.Context, jid string, text string) error {
	target, err := types.ParseJID(jid)
	if err != nil {
		return fmt.Errorf("parsing chat JID %q: %w", jid, err)
	}

	msg := &waE2E.Message{Conversation: proto.String(text)}
	if _, err := c.cli.SendMessage(ctx, target, msg); err != nil {
		return fmt.Errorf("sending message: %w", classify(err))
	}
	return nil
}

// AddEventHandler registers a handler for translated lifecycle events.
func (c *Client) AddEventHandler(handler func(wa.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// emit delivers an event to every registered handler in order.
func (c *Client) emit(evt wa.Event) {
	c.mu.Lock()
	handlers := make([]func(wa.Event), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(evt)
	}
}

// dispatch translates whatsmeow events into the relay's event taxonomy.
func (c *Client) dispatch(evt interface{}) {
	switch e := evt.(type) {
	case *events.QR:
		// whatsmeow hands over the full code list; the first one is live
		// now, later ones replace it as each expires.
		if len(e.Codes) > 0 {
			c.emit(wa.QREvent{Code: e.Codes[0]})
		}
	case *events.PairSuccess:
		c.emit(wa.AuthenticatedEvent{})
	case *events.Connected:
		c.emit(wa.ReadyEvent{})
	case *events.ConnectFailure:
		c.emit(wa.AuthFailureEvent{Reason: fmt.Sprintf("%v", e.Reason)})
	case *events.LoggedOut:
		c.emit(wa.DisconnectedEvent{Reason: wa.ReasonLogout})
	case *events.StreamReplaced:
		// Another client took over the session.
		c.emit(wa.DisconnectedEvent{Reason: wa.ReasonNavigation})
	case *events.Disconnected:
		c.emit(wa.DisconnectedEvent{Reason: wa.ReasonStream})
	}
}

// classify wraps errors caused by a torn-down or mid-reconnect client in
// wa.TransientError. This is the single place where whatsmeow's failure
// modes are sniffed; everything above checks the typed error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, whatsmeow.ErrNotConnected) || errors.Is(err, whatsmeow.ErrClientIsNil) {
		return wa.Transient(err)
	}
	msg := err.Error()
	if strings.Contains(msg, "websocket disconnected") || strings.Contains(msg, "websocket is already connected") {
		return wa.Transient(err)
	}
	return err
}
