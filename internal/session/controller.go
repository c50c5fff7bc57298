// ABOUTME: Lifecycle controller owning the single live WhatsApp client instance.
// ABOUTME: Handles pairing, reconnection with tiered retry delays, and message sends.

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/wa-relay/internal/resolver"
	"github.com/2389/wa-relay/internal/wa"
)

// ErrNotReady is returned by Send when the session is not authenticated.
var ErrNotReady = errors.New("client is not ready")

// Notifier receives pairing codes for display and operator notification.
// Implementations must never block pairing on notification failure.
type Notifier interface {
	HandleQR(ctx context.Context, code string)
}

// Delays are the controller's retry timing knobs. Production uses the
// defaults; tests shrink them.
type Delays struct {
	// Restart is how long to wait after a forced logout before destroying
	// the old client and building a replacement.
	Restart time.Duration
	// TransientRetry is the retry delay after a connect failure caused by
	// a torn-down client context, expected during reconnection.
	TransientRetry time.Duration
	// Retry is the retry delay after any other connect failure. Retries
	// continue indefinitely.
	Retry time.Duration
}

// DefaultDelays matches the relay's production timing.
func DefaultDelays() Delays {
	return Delays{
		Restart:        3 * time.Second,
		TransientRetry: 5 * time.Second,
		Retry:          10 * time.Second,
	}
}

// Controller owns one wa.Client at a time. Everything else in the relay
// reaches the live client through the controller, so that replacing the
// instance on forced logout is invisible to callers.
type Controller struct {
	factory  wa.Factory
	resolver *resolver.Resolver
	cache    *resolver.Cache
	notifier Notifier
	defaults resolver.Destination
	delays   Delays
	logger   *slog.Logger

	mu     sync.RWMutex
	client wa.Client
	state  State

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config carries the controller's collaborators.
type Config struct {
	Factory            wa.Factory
	Resolver           *resolver.Resolver
	Cache              *resolver.Cache
	Notifier           Notifier
	DefaultDestination resolver.Destination
	Delays             Delays
	Logger             *slog.Logger
}

// New creates a controller. Call Start to build the first client and begin
// initialization.
func New(cfg Config) *Controller {
	delays := cfg.Delays
	if delays == (Delays{}) {
		delays = DefaultDelays()
	}
	return &Controller{
		factory:  cfg.Factory,
		resolver: cfg.Resolver,
		cache:    cfg.Cache,
		notifier: cfg.Notifier,
		defaults: cfg.DefaultDestination,
		delays:   delays,
		logger:   cfg.Logger.With("component", "session"),
		state:    StateUnauthenticated,
	}
}

// Start builds the first client, registers event handlers and kicks off
// initialization. It returns once initialization is underway; the retry
// loop runs in the background until ctx is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	client, err := c.factory()
	if err != nil {
		return err
	}
	client.AddEventHandler(c.handleEvent)

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()

	c.logger.Info("starting WhatsApp client")
	c.spawn(func() { c.initialize(client) })
	return nil
}

// Stop cancels background work and destroys the current client.
func (c *Controller) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client != nil {
		if err := client.Destroy(); err != nil {
			c.logger.Warn("error destroying client", "error", err)
		}
	}
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Ready reports whether the session can send messages: the controller is in
// StateReady and the client itself has its session info populated.
func (c *Controller) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == StateReady && c.client != nil && c.client.Ready()
}

// Send resolves dest (or the configured default when dest is empty) and
// delivers text to it, returning the resolved chat. Returns ErrNotReady when
// the session is not authenticated; resolution failures pass through
// unchanged.
func (c *Controller) Send(ctx context.Context, dest resolver.Destination, text string) (wa.Chat, error) {
	c.mu.RLock()
	client := c.client
	ready := c.state == StateReady && client != nil && client.Ready()
	c.mu.RUnlock()

	if !ready {
		return wa.Chat{}, ErrNotReady
	}

	// Only the explicit zero destination means "use the default". A
	// whitespace-only name is a caller mistake and must fail resolution,
	// not silently deliver to the default chat.
	if dest == (resolver.Destination{}) {
		dest = c.defaults
	}

	chat, err := c.resolver.Resolve(ctx, client, dest)
	if err != nil {
		return wa.Chat{}, err
	}
	if err := client.Send(ctx, chat.JID, text); err != nil {
		return wa.Chat{}, err
	}
	return chat, nil
}

// initialize runs the connect-with-retry loop for one particular client
// instance. It gives up silently if the controller has moved on to a newer
// instance, so a stale loop cannot connect a destroyed client.
func (c *Controller) initialize(client wa.Client) {
	for {
		if c.ctx.Err() != nil || !c.isCurrent(client) {
			return
		}

		err := client.Connect(c.ctx)
		if err == nil {
			return
		}

		var delay time.Duration
		if wa.IsTransient(err) {
			// Expected during logout/reconnection, not an error.
			c.logger.Info("client initialization hit torn-down context, retrying",
				"delay", c.delays.TransientRetry)
			delay = c.delays.TransientRetry
		} else {
			c.logger.Error("failed to initialize client", "error", err,
				"delay", c.delays.Retry)
			delay = c.delays.Retry
		}

		if !c.sleep(delay) {
			return
		}
	}
}

// handleEvent dispatches client lifecycle events. Handlers run on the
// client's event goroutine, so anything slow is spawned off.
func (c *Controller) handleEvent(evt wa.Event) {
	switch e := evt.(type) {
	case wa.QREvent:
		c.setState(StateAuthenticating)
		c.logger.Info("QR code received, scan it with your phone")
		code := e.Code
		c.spawn(func() { c.notifier.HandleQR(c.ctx, code) })

	case wa.AuthenticatedEvent:
		c.logger.Info("WhatsApp authenticated successfully")

	case wa.ReadyEvent:
		c.setState(StateReady)
		c.logger.Info("WhatsApp client is ready")
		c.spawn(c.checkDefaultDestination)

	case wa.AuthFailureEvent:
		// The client re-emits a pairing code; nothing to retry here.
		c.logger.Error("authentication failed, QR scan required", "reason", e.Reason)
		c.setState(StateUnauthenticated)

	case wa.DisconnectedEvent:
		c.handleDisconnect(e.Reason)
	}
}

// checkDefaultDestination eagerly resolves the configured default chat after
// the session comes up, for early validation. Failure is logged, not fatal.
func (c *Controller) checkDefaultDestination() {
	if c.defaults.Empty() {
		return
	}

	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	if client == nil {
		return
	}

	chat, err := c.resolver.Resolve(c.ctx, client, c.defaults)
	if err != nil {
		c.logger.Error("error resolving destination chat", "error", err)
		return
	}
	c.logger.Info("found destination chat", "name", chat.Name, "jid", chat.JID)
}

// handleDisconnect clears the chat cache (handles are invalid once the
// session drops) and, for forced-logout reasons, schedules a full client
// rebuild after the restart delay. Other reasons leave the controller idle
// in StateDisconnected.
func (c *Controller) handleDisconnect(reason wa.DisconnectReason) {
	c.logger.Info("client was disconnected", "reason", reason)

	c.cache.Clear()
	c.logger.Info("chat cache cleared")
	c.setState(StateDisconnected)

	if !reason.ForcedLogout() {
		return
	}

	c.logger.Info("re-authentication required, restarting client",
		"delay", c.delays.Restart)
	c.spawn(func() {
		if !c.sleep(c.delays.Restart) {
			return
		}
		c.restart()
	})
}

// restart destroys the current client (best effort) and replaces it with a
// fresh instance from the factory, re-registering handlers and restarting
// initialization.
func (c *Controller) restart() {
	c.mu.Lock()
	old := c.client
	c.mu.Unlock()

	if old != nil {
		if err := old.Destroy(); err != nil {
			c.logger.Warn("error destroying client", "error", err)
		}
	}

	client, err := c.factory()
	if err != nil {
		// Without a client there is nothing to retry against; stay
		// disconnected until external intervention.
		c.logger.Error("failed to recreate client", "error", err)
		return
	}
	client.AddEventHandler(c.handleEvent)

	c.mu.Lock()
	c.client = client
	c.state = StateUnauthenticated
	c.mu.Unlock()

	c.spawn(func() { c.initialize(client) })
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// isCurrent reports whether client is still the controller's live instance.
func (c *Controller) isCurrent(client wa.Client) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client == client
}

// sleep waits for d or until the controller shuts down. Returns false when
// interrupted.
func (c *Controller) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *Controller) spawn(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}
