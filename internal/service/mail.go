package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/twonumberfortyfives/e-commerce-shop/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers a single HTML email
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(c config.Mail) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(c.Host, c.Port, c.SenderAddress, c.Password),
		from:   c.SenderAddress,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if to == m.from {
		return errors.New("refusing to send mail to the sender address")
	}

	// gomail takes no context, only skip deliveries for dead requests
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail, %w", err)
	}

	return nil
}

// LogMailer writes mails to the log instead of sending them. It's used when
// no SMTP server is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	zap.L().Info("Mail delivery disabled, logging mail instead",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)

	return nil
}

func verificationMail(link string) (subject, body string) {
	return "Verify your email address",
		fmt.Sprintf("Click <a href='%v'>here</a> to verify your account.\n\nThis link will expire in 1 hour", link)
}
