// Package wa defines the contract between wa-relay and the WhatsApp
// automation client, including lifecycle events and the transient-error
// classification used by the reconnect logic.
package wa
