// ABOUTME: Thread-safe dual-keyed cache of resolved chats (by name and by JID).
// ABOUTME: Cleared wholesale on disconnect since handles do not survive the session.

package resolver

import (
	"sync"

	"github.com/2389/wa-relay/internal/wa"
)

// Cache memoizes resolved chats under two separate key spaces: chat name and
// serialized id. Keeping the maps separate avoids accidental collisions
// between a name string and an id string.
type Cache struct {
	mu     sync.RWMutex
	byName map[string]wa.Chat
	byID   map[string]wa.Chat
}

// NewCache creates an empty chat cache.
func NewCache() *Cache {
	return &Cache{
		byName: make(map[string]wa.Chat),
		byID:   make(map[string]wa.Chat),
	}
}

// Get looks up a destination, preferring its id key over its name key.
func (c *Cache) Get(dest Destination) (wa.Chat, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if dest.ID != "" {
		if chat, ok := c.byID[dest.ID]; ok {
			return chat, true
		}
	}
	if dest.Name != "" {
		if chat, ok := c.byName[dest.Name]; ok {
			return chat, true
		}
	}
	return wa.Chat{}, false
}

// Put stores a chat under every non-empty key it is known by, so a later
// lookup by either name or id hits. Concurrent writes for the same chat are
// last-write-wins with identical values.
func (c *Cache) Put(chat wa.Chat) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if chat.JID != "" {
		c.byID[chat.JID] = chat
	}
	if chat.Name != "" {
		c.byName[chat.Name] = chat
	}
	if chat.Alias != "" && chat.Alias != chat.Name {
		c.byName[chat.Alias] = chat
	}
}

// Clear drops every entry. Called on disconnect: handles lent by the client
// are invalid once the session is gone.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byName = make(map[string]wa.Chat)
	c.byID = make(map[string]wa.Chat)
}

// Len returns the number of distinct cached chats, counted by id.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
