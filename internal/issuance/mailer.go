package issuance

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"time"

	"tixify/config"

	"github.com/domodwyer/mailyak/v3"
)

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer 透過 SMTP 寄送票券
type SMTPMailer struct {
	addr     string
	auth     smtp.Auth
	from     string
	fromName string
	timeout  time.Duration
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		auth:     auth,
		from:     cfg.From,
		fromName: cfg.FromName,
		timeout:  timeout,
	}
}

func (m *SMTPMailer) build(msg Message) *mailyak.MailYak {
	mail := mailyak.New(m.addr, m.auth)
	mail.To(msg.To)
	mail.From(m.from)
	mail.FromName(m.fromName)
	mail.Subject(msg.Subject)
	mail.HTML().Set(msg.HTML)
	for _, a := range msg.Attachments {
		if a.ContentType != "" {
			mail.AttachWithMimeType(a.Name, bytes.NewReader(a.Data), a.ContentType)
		} else {
			mail.Attach(a.Name, bytes.NewReader(a.Data))
		}
	}
	return mail
}

// Send gives up when ctx ends or the timeout passes; the SMTP dialog itself
// keeps running in its own goroutine until the server lets go.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("send mail: empty recipient")
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	mail := m.build(msg)
	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send mail to %s: %w", msg.To, ctx.Err())
	}
}
