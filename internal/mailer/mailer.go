package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"sitescripts/internal/config"
	"sitescripts/internal/model"
)

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders digests and hands them to a transport.
type Mailer struct {
	renderer  *Renderer
	transport Transport
}

// New creates a Mailer.
func New(renderer *Renderer, transport Transport) *Mailer {
	return &Mailer{renderer: renderer, transport: transport}
}

// MailDigest renders and sends d.
func (m *Mailer) MailDigest(ctx context.Context, d *model.Digest) error {
	msg, err := m.renderer.Render(d)
	if err != nil {
		return err
	}
	if err := m.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", msg.Envelope, err)
	}
	return nil
}

// NewTransport returns the transport selected by cfg.Transport.
func NewTransport(ctx context.Context, cfg config.Mail, log *slog.Logger) (Transport, error) {
	switch cfg.Transport {
	case "smtp":
		return NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From), nil
	case "ses":
		return NewSESTransport(ctx, cfg.SESRegion, cfg.AWSAccessKey, cfg.AWSSecretKey, cfg.From)
	case "log", "":
		return NewLogTransport(log), nil
	}
	return nil, fmt.Errorf("unsupported mail transport %q", cfg.Transport)
}

// LogTransport writes messages to the log instead of sending them.
type LogTransport struct {
	log *slog.Logger
}

// NewLogTransport creates a LogTransport.
func NewLogTransport(log *slog.Logger) *LogTransport {
	return &LogTransport{log: log}
}

// Send logs msg.
func (t *LogTransport) Send(_ context.Context, msg Message) error {
	t.log.Info("would send digest", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.Body))
	t.log.Debug("digest body", "to", msg.To, "body", msg.Body)
	return nil
}

func envelopeAddress(header string) string {
	a, err := mail.ParseAddress(header)
	if err != nil {
		return strings.TrimSpace(header)
	}
	return a.Address
}
