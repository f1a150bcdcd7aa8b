// Package mailer implements the outbound email transport over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Telyonok/Congratulator-Plugin/internal/domain/email"

	"github.com/sirupsen/logrus"
)

// SMTPTransport implements email.Transport using a plain SMTP server.
type SMTPTransport struct {
	fromName    string
	fromAddress string
	host        string
	port        string
	auth        smtp.Auth
	log         *logrus.Logger
}

type SMTPConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	FromName    string
	FromAddress string
}

func NewSMTPTransport(cfg SMTPConfig, log *logrus.Logger) (*SMTPTransport, error) {
	if cfg.Host == "" || cfg.Port == "" || cfg.FromAddress == "" {
		return nil, fmt.Errorf("SMTP configuration (host, port, from address) cannot be empty")
	}
	// Authentication might be optional depending on the SMTP server.
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPTransport{
		fromName:    cfg.FromName,
		fromAddress: cfg.FromAddress,
		host:        cfg.Host,
		port:        cfg.Port,
		auth:        auth,
		log:         log,
	}, nil
}

// Send delivers the record to every address in its recipient list.
func (t *SMTPTransport) Send(ctx context.Context, rec *email.Record) error {
	fromDisplay := t.fromName
	if fromDisplay == "" {
		fromDisplay = "Congratulator"
	}
	from := fmt.Sprintf("%s <%s>", fromDisplay, t.fromAddress)

	recipients := splitRecipients(rec.Recipients)
	if len(recipients) == 0 {
		return fmt.Errorf("email record %d has no recipients", rec.ID)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, strings.Join(recipients, ", "), rec.Subject, rec.Body)

	addr := t.host + ":" + t.port
	if err := smtp.SendMail(addr, t.auth, t.fromAddress, recipients, []byte(msg)); err != nil {
		t.log.WithFields(logrus.Fields{
			"recipients": rec.Recipients,
			"smtp_host":  t.host,
		}).WithError(err).Error("Failed to send email via SMTP")
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	t.log.WithFields(logrus.Fields{
		"recipients": rec.Recipients,
		"subject":    rec.Subject,
	}).Info("Email sent via SMTP")
	return nil
}

func splitRecipients(serialized string) []string {
	parts := strings.Split(serialized, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
