package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"commsdesk/internal/config"
)

// Mailer sends transactional notification emails. Delivery is best-effort:
// implementations log failures instead of propagating them, so a broken SMTP
// relay never fails a user-facing request.
type Mailer interface {
	SendWelcome(to, fullName string)
	SendLoginNotification(to, fullName, ip, userAgent string)
	SendPasswordChanged(to, fullName string)
}

// SMTPMailer delivers mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	sender   string
	appName  string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		sender:   cfg.MailSender,
		appName:  cfg.AppName,
	}
}

func (m *SMTPMailer) SendWelcome(to, fullName string) {
	subject := fmt.Sprintf("Welcome to %s", m.appName)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nYour account has been created successfully. You can now sign in and start working.\r\n\r\nRegards,\r\n%s Team\r\n",
		fullName, m.appName,
	)
	m.send(to, subject, body)
}

func (m *SMTPMailer) SendLoginNotification(to, fullName, ip, userAgent string) {
	subject := fmt.Sprintf("New sign-in to your %s account", m.appName)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nA new sign-in to your account was detected.\r\n\r\nIP address: %s\r\nDevice: %s\r\n\r\nIf this was not you, change your password immediately.\r\n\r\nRegards,\r\n%s Team\r\n",
		fullName, ip, userAgent, m.appName,
	)
	m.send(to, subject, body)
}

func (m *SMTPMailer) SendPasswordChanged(to, fullName string) {
	subject := fmt.Sprintf("Your %s password was changed", m.appName)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nYour password was changed and all active sessions were signed out.\r\n\r\nIf this was not you, contact an administrator immediately.\r\n\r\nRegards,\r\n%s Team\r\n",
		fullName, m.appName,
	)
	m.send(to, subject, body)
}

// send delivers the message in the background. SMTP relays can be slow or
// flaky and notification mail must never block or fail the request.
func (m *SMTPMailer) send(to, subject, body string) {
	if m.host == "" {
		return
	}
	go func() {
		msg := strings.Join([]string{
			fmt.Sprintf("From: %s", m.sender),
			fmt.Sprintf("To: %s", to),
			fmt.Sprintf("Subject: %s", subject),
			"MIME-Version: 1.0",
			`Content-Type: text/plain; charset="utf-8"`,
			"",
			body,
		}, "\r\n")

		addr := fmt.Sprintf("%s:%d", m.host, m.port)
		var authMech smtp.Auth
		if m.username != "" {
			authMech = smtp.PlainAuth("", m.username, m.password, m.host)
		}
		if err := smtp.SendMail(addr, authMech, m.sender, []string{to}, []byte(msg)); err != nil {
			log.Printf("mailer: failed to send %q to %s: %v", subject, to, err)
		}
	}()
}

// NopMailer discards all mail. Used when SMTP is not configured and in tests.
type NopMailer struct{}

func (NopMailer) SendWelcome(string, string)                         {}
func (NopMailer) SendLoginNotification(string, string, string, string) {}
func (NopMailer) SendPasswordChanged(string, string)                 {}
