package mailer

import (
	"context"
	"fmt"
	"io"

	"qualification_reminder/internal/domain/mail"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the SMTP relay settings and the sender identity.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	FromName  string
	FromEmail string
	LogoPath  string // embedded as LogoName when set
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	cfg    SMTPConfig
	logger *logrus.Entry
}

func NewSMTPSender(cfg SMTPConfig, logger *logrus.Entry) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP_HOST is not set")
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.Username
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg *mail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := buildMessage(s.cfg, msg)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("error sending '%s': %w", msg.Subject, err)
	}
	s.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"cc":      msg.Cc,
		"subject": msg.Subject,
	}).Debug("Email sent")
	return nil
}

func buildMessage(cfg SMTPConfig, msg *mail.Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", cfg.FromEmail, cfg.FromName)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	if cfg.LogoPath != "" {
		m.Embed(cfg.LogoPath, gomail.Rename(LogoName))
	}
	for _, a := range msg.Attachments {
		data := a.Data
		m.Attach(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}
	return m
}
