package services

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"

	"github.com/miriadsolutions/atendimento-backend/internal/models"
)

// EmailSender is the mail-delivery contract the finalization sequence
// depends on
type EmailSender interface {
	Send(email *models.Email) error
}

// MailerService delivers report emails over SMTP
type MailerService struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailerService creates a mailer from environment credentials.
// Defaults to Gmail's SMTP endpoint.
func NewMailerService() (*MailerService, error) {
	user := os.Getenv("EMAIL_USER")
	pass := os.Getenv("EMAIL_PASS")
	if user == "" || pass == "" {
		return nil, fmt.Errorf("missing email credentials: ensure EMAIL_USER and EMAIL_PASS are set")
	}

	host := os.Getenv("EMAIL_SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := 587
	if p := os.Getenv("EMAIL_SMTP_PORT"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid EMAIL_SMTP_PORT %q: %w", p, err)
		}
		port = parsed
	}

	return &MailerService{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   user,
	}, nil
}

// Send delivers an email with optional in-memory attachments
func (m *MailerService) Send(email *models.Email) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	if len(email.Cc) > 0 {
		msg.SetHeader("Cc", email.Cc...)
	}
	if len(email.Bcc) > 0 {
		msg.SetHeader("Bcc", email.Bcc...)
	}
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.Body)

	for _, att := range email.Attachments {
		content := att.Content
		msg.Attach(att.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", email.To, err)
	}

	log.Printf("✅ E-mail enviado para %s", email.To)
	return nil
}
