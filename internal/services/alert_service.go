package services

import (
	"fmt"
	"net/smtp"
	"strings"
)

// AlertNotifier surfaces conditions that need operator attention: possible
// tampering, entitlement grants left for the reconciler.
type AlertNotifier interface {
	PaymentAlert(subject, body string) error
}

// SMTPConfig holds the mail credentials for operator alerts.
type SMTPConfig struct {
	Host     string // e.g. "smtp.gmail.com"
	Port     int    // e.g. 587
	Username string
	Password string
	From     string // envelope from, e.g. "alerts@yourapp.com"
	To       string // operator inbox
	AppName  string // used in the subject prefix
}

type smtpAlertNotifier struct {
	cfg SMTPConfig
}

func NewSMTPAlertNotifier(cfg SMTPConfig) AlertNotifier {
	return &smtpAlertNotifier{cfg: cfg}
}

func (s *smtpAlertNotifier) PaymentAlert(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", s.cfg.To)
	fmt.Fprintf(&msg, "Subject: [%s] %s\r\n", s.cfg.AppName, subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	return smtp.SendMail(addr, auth, s.cfg.From, []string{s.cfg.To}, []byte(msg.String()))
}

type noopAlertNotifier struct{}

// NewNoopAlertNotifier is used when SMTP is not configured; alerts then only
// reach the logs.
func NewNoopAlertNotifier() AlertNotifier {
	return noopAlertNotifier{}
}

func (noopAlertNotifier) PaymentAlert(string, string) error { return nil }
