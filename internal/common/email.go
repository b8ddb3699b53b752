package common

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	Send(to, subject, html string) error
}

// InMemoryEmail provides a test-friendly email sender that records messages.
type InMemoryEmail struct {
	Outbox []Email
}

// Email represents a single email message captured by InMemoryEmail.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Send records the email in memory.
func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender implements EmailSender without performing any action.
type NopEmailSender struct{}

// Send implements EmailSender.
func (NopEmailSender) Send(string, string, string) error { return nil }

// SMTPEmail sends HTML email through a plain SMTP relay.
type SMTPEmail struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Send implements EmailSender.
func (s SMTPEmail) Send(to, subject, html string) error {
	if strings.TrimSpace(s.Host) == "" || strings.TrimSpace(s.From) == "" {
		return errors.New("email: smtp host and from address are required")
	}
	var msg strings.Builder
	msg.WriteString("From: " + s.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(html)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	var auth smtp.Auth
	if s.Username != "" || s.Password != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	return smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg.String()))
}
