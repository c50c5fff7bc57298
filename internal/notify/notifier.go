// ABOUTME: Pairing notifier: terminal QR rendering plus operator email with PNG attachment.
// ABOUTME: All rendering and delivery failures are logged and swallowed.

package notify

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mdp/qrterminal/v3"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/2389/wa-relay/internal/mail"
)

const (
	emailSubject = "WhatsApp Bot - QR Code Authentication Required"

	emailText = "WhatsApp QR Code for authentication has been generated. " +
		"Please check the attached QR code image and scan it with your WhatsApp mobile app. " +
		"This QR code will expire shortly."

	emailHTML = `<h2>WhatsApp QR Code</h2>
<p>Scan the attached QR code with your WhatsApp mobile app to authenticate:</p>
<p>This QR code will expire shortly, so scan it as soon as possible.</p>
<p>If you can't see the attachment, please check your spam folder or contact support.</p>`

	qrImageSize = 400
)

// Mailer is the slice of the email gateway the notifier needs.
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string, attachments []mail.Attachment) mail.Result
}

// Notifier handles pairing codes. When emailTo is empty only the terminal
// rendering happens.
type Notifier struct {
	mailer  Mailer
	emailTo string
	out     io.Writer
	logger  *slog.Logger
}

// New creates a notifier writing terminal output to os.Stdout.
func New(mailer Mailer, emailTo string, logger *slog.Logger) *Notifier {
	return &Notifier{
		mailer:  mailer,
		emailTo: emailTo,
		out:     os.Stdout,
		logger:  logger.With("component", "notify"),
	}
}

// HandleQR renders the pairing code as a half-block terminal QR and mails it
// to the operator if configured. Never returns an error: pairing must not be
// blocked by a notification failure.
func (n *Notifier) HandleQR(ctx context.Context, code string) {
	banner := color.New(color.FgCyan, color.Bold)
	banner.Fprintln(n.out, "Scan this QR code with your phone:")
	qrterminal.GenerateHalfBlock(code, qrterminal.L, n.out)

	if n.emailTo == "" {
		return
	}

	png, err := qrcode.Encode(code, qrcode.Medium, qrImageSize)
	if err != nil {
		n.logger.Error("error rendering QR code image", "error", err)
		return
	}

	attachments := []mail.Attachment{{
		Filename:    "whatsapp-qr-code.png",
		Content:     png,
		ContentType: "image/png",
		Disposition: "attachment",
	}}

	result := n.mailer.Send(ctx, n.emailTo, emailSubject, emailText, emailHTML, attachments)
	if !result.Success {
		n.logger.Error("failed to send QR code email", "to", n.emailTo, "error", result.Err)
		return
	}
	n.logger.Info("QR code sent via email", "to", n.emailTo, "message_id", result.MessageID)
}
