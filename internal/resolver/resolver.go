// ABOUTME: Resolves a chat name or id to a live chat handle via the client's chat list.
// ABOUTME: Exact-string matching only; results are cached under both key spaces.

package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/wa-relay/internal/wa"
)

// Destination is a logical message target: a chat name, a chat id, or both.
// When both are set the id wins, because display names are not guaranteed
// unique (non-Latin names in particular collide under truncation).
type Destination struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Empty reports whether the destination names nothing to look up.
func (d Destination) Empty() bool {
	return strings.TrimSpace(d.Name) == "" && strings.TrimSpace(d.ID) == ""
}

// String returns a human-readable label for logs and error messages.
func (d Destination) String() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// NotFoundError indicates that no current chat matched the destination.
type NotFoundError struct {
	Destination Destination
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("chat %q not found", e.Destination.String())
}

// Lister is the slice of the client contract the resolver needs.
type Lister interface {
	Chats(ctx context.Context) ([]wa.Chat, error)
}

// Resolver turns destinations into chat handles, consulting the cache before
// falling back to a full chat-list fetch and linear scan.
type Resolver struct {
	cache  *Cache
	logger *slog.Logger
	debug  bool
}

// New creates a resolver around the given cache. With debug enabled, failed
// lookups log the full available chat list for diagnostics.
func New(cache *Cache, logger *slog.Logger, debug bool) *Resolver {
	return &Resolver{
		cache:  cache,
		logger: logger.With("component", "resolver"),
		debug:  debug,
	}
}

// Resolve returns the chat handle for dest, fetching the chat list from the
// client on a cache miss. Two racing resolutions of the same uncached key
// may both fetch the list; the redundant cache writes are identical.
func (r *Resolver) Resolve(ctx context.Context, client Lister, dest Destination) (wa.Chat, error) {
	if dest.Empty() {
		return wa.Chat{}, &NotFoundError{Destination: dest}
	}

	if chat, ok := r.cache.Get(dest); ok {
		return chat, nil
	}

	chats, err := client.Chats(ctx)
	if err != nil {
		return wa.Chat{}, fmt.Errorf("listing chats: %w", err)
	}

	var found wa.Chat
	var ok bool
	if dest.ID != "" {
		found, ok = matchByID(chats, dest.ID)
	} else {
		found, ok = matchByName(chats, dest.Name)
	}

	if !ok {
		r.logger.Warn("could not find chat", "destination", dest.String())
		if r.debug {
			for _, chat := range chats {
				r.logger.Info("available chat", "name", chat.Name, "jid", chat.JID)
			}
		}
		return wa.Chat{}, &NotFoundError{Destination: dest}
	}

	r.cache.Put(found)
	return found, nil
}

// matchByID scans for an exact serialized-identifier match. Preferred over
// name matching since JIDs are unique.
func matchByID(chats []wa.Chat, id string) (wa.Chat, bool) {
	for _, chat := range chats {
		if chat.JID == id {
			return chat, true
		}
	}
	return wa.Chat{}, false
}

// matchByName scans for an exact match against the chat's stored name or its
// push-name alias. No fuzzy or partial matching.
func matchByName(chats []wa.Chat, name string) (wa.Chat, bool) {
	if strings.TrimSpace(name) == "" {
		return wa.Chat{}, false
	}
	for _, chat := range chats {
		if chat.Name == name || chat.Alias == name {
			return chat, true
		}
	}
	return wa.Chat{}, false
}
