// Package session owns the live WhatsApp client instance, reacting to
// pairing, ready, auth-failure and disconnect events, and replacing the
// client wholesale when a forced logout invalidates the stored session.
package session
