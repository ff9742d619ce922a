package smtp

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/config"
)

// Mailer sends the transactional emails of the account lifecycle. Delivery
// failures do not roll back store mutations; callers decide whether a failed
// send gates the request outcome.
type Mailer interface {
	SendVerificationEmail(to, name, code string) error
	SendWelcomeEmail(to, name string) error
	SendPasswordResetEmail(to, resetURL string) error
	SendPasswordResetSuccessEmail(to, name string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendVerificationEmail(to, name, code string) error {
	body, err := render(verificationTmpl, map[string]string{"Name": name, "Code": code})
	if err != nil {
		return err
	}
	return m.send(to, "Verify Your Email", body)
}

func (m *mailer) SendWelcomeEmail(to, name string) error {
	body, err := render(welcomeTmpl, map[string]string{"Name": name})
	if err != nil {
		return err
	}
	return m.send(to, "Welcome!", body)
}

func (m *mailer) SendPasswordResetEmail(to, resetURL string) error {
	body, err := render(resetRequestTmpl, map[string]string{"ResetURL": resetURL})
	if err != nil {
		return err
	}
	return m.send(to, "Reset Your Password", body)
}

func (m *mailer) SendPasswordResetSuccessEmail(to, name string) error {
	body, err := render(resetSuccessTmpl, map[string]string{"Name": name})
	if err != nil {
		return err
	}
	return m.send(to, "Password Reset Successful", body)
}

func (m *mailer) send(to, subject, htmlBody string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		m.from, to, subject, htmlBody)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

func render(t *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}
