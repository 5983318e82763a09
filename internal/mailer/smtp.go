package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strconv"
	"time"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPTransport sends messages through an SMTP relay.
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
	from     string
	sendMail sendMailFunc
	now      func() time.Time
}

// NewSMTPTransport creates an SMTPTransport. PLAIN authentication is
// used when username is set.
func NewSMTPTransport(host string, port int, username, password, from string) *SMTPTransport {
	return &SMTPTransport{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		sendMail: smtp.SendMail,
		now:      time.Now,
	}
}

// Send delivers msg. net/smtp has no context support, so ctx is only
// checked before connecting.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if t.username != "" {
		auth = smtp.PlainAuth("", t.username, t.password, t.host)
	}

	addr := t.host + ":" + strconv.Itoa(t.port)
	if err := t.sendMail(addr, auth, t.from, []string{msg.Envelope}, t.compose(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (t *SMTPTransport) compose(msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", t.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", t.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(toCRLF(msg.Body))
	return b.Bytes()
}

func toCRLF(s string) string {
	var b bytes.Buffer
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' && (i == 0 || s[i-1] != '\r') {
			b.WriteByte('\r')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
