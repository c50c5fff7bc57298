// ABOUTME: Email gateway wrapping the Resend SDK with a normalized Result type.
// ABOUTME: Provider failures are logged and reported, never propagated as errors.

package mail

import (
	"context"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Attachment is a file to attach to an outgoing email.
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
	Disposition string
}

// Result is the normalized outcome of a send attempt.
type Result struct {
	Success   bool
	MessageID string
	Err       string
}

// sendFunc matches the Resend SDK's context-aware send call, kept as a
// field so tests can stub the provider.
type sendFunc func(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)

// Gateway sends transactional email through Resend.
type Gateway struct {
	from   string
	send   sendFunc
	logger *slog.Logger
}

// New creates a gateway authenticated with apiKey, sending from the given
// address.
func New(apiKey, from string, logger *slog.Logger) *Gateway {
	client := resend.NewClient(apiKey)
	return &Gateway{
		from:   from,
		send:   client.Emails.SendWithContext,
		logger: logger.With("component", "mail"),
	}
}

// Send delivers an email and reports the outcome. html and attachments are
// optional. All provider failures are caught and normalized; Send never
// panics and never returns an error.
func (g *Gateway) Send(ctx context.Context, to, subject, text, html string, attachments []Attachment) Result {
	params := &resend.SendEmailRequest{
		From:    g.from,
		To:      []string{to},
		Subject: subject,
		Text:    text,
	}
	if html != "" {
		params.Html = html
	}
	for _, a := range attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
		})
	}

	sent, err := g.send(ctx, params)
	if err != nil {
		g.logger.Error("error sending email", "to", to, "error", err)
		return Result{Success: false, Err: err.Error()}
	}

	g.logger.Info("email sent successfully", "to", to, "message_id", sent.Id)
	return Result{Success: true, MessageID: sent.Id}
}
