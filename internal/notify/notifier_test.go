// ABOUTME: Tests for the pairing notifier: terminal rendering and operator email.
// ABOUTME: Uses a fake mailer; delivery failures must be swallowed.

package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/wa-relay/internal/mail"
)

type fakeMailer struct {
	result      mail.Result
	to          string
	subject     string
	attachments []mail.Attachment
	calls       int
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, text, html string, attachments []mail.Attachment) mail.Result {
	f.calls++
	f.to = to
	f.subject = subject
	f.attachments = attachments
	return f.result
}

func newTestNotifier(mailer Mailer, emailTo string, out *bytes.Buffer) *Notifier {
	return &Notifier{
		mailer:  mailer,
		emailTo: emailTo,
		out:     out,
		logger:  slog.Default(),
	}
}

func TestHandleQRRendersToTerminal(t *testing.T) {
	var out bytes.Buffer
	n := newTestNotifier(nil, "", &out)

	n.HandleQR(context.Background(), "pairing-code")

	assert.Contains(t, out.String(), "Scan this QR code")
	// The half-block QR itself follows the banner.
	assert.Greater(t, out.Len(), 100)
}

func TestHandleQREmailsOperator(t *testing.T) {
	var out bytes.Buffer
	mailer := &fakeMailer{result: mail.Result{Success: true, MessageID: "msg-1"}}
	n := newTestNotifier(mailer, "ops@example.com", &out)

	n.HandleQR(context.Background(), "pairing-code")

	require.Equal(t, 1, mailer.calls)
	assert.Equal(t, "ops@example.com", mailer.to)
	assert.Equal(t, emailSubject, mailer.subject)

	require.Len(t, mailer.attachments, 1)
	att := mailer.attachments[0]
	assert.Equal(t, "whatsapp-qr-code.png", att.Filename)
	assert.Equal(t, "image/png", att.ContentType)
	assert.Equal(t, "attachment", att.Disposition)
	assert.NotEmpty(t, att.Content)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, att.Content[:4])
}

func TestHandleQRNoEmailConfigured(t *testing.T) {
	var out bytes.Buffer
	mailer := &fakeMailer{}
	n := newTestNotifier(mailer, "", &out)

	n.HandleQR(context.Background(), "pairing-code")

	assert.Equal(t, 0, mailer.calls, "no email configured means no send attempt")
}

func TestHandleQRSwallowsMailFailure(t *testing.T) {
	var out bytes.Buffer
	mailer := &fakeMailer{result: mail.Result{Success: false, Err: "provider down"}}
	n := newTestNotifier(mailer, "ops@example.com", &out)

	// Must not panic or propagate anything; pairing goes on.
	n.HandleQR(context.Background(), "pairing-code")
	assert.Equal(t, 1, mailer.calls)
}
