// Package meow implements the wa.Client contract over go.mau.fi/whatsmeow,
// persisting session credentials in a SQLite container so the relay stays
// authenticated across restarts.
package meow
