// Package resolver maps logical destinations (a chat name or id) to live
// WhatsApp chat handles, memoizing lookups in a cache that is invalidated
// when the session disconnects.
package resolver
