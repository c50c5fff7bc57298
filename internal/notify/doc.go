// Package notify renders WhatsApp pairing codes to the terminal and, when
// an operator email is configured, mails the code as a scannable PNG.
// Notification failures never block pairing.
package notify
