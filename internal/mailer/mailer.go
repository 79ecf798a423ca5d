package mailer

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Mailer sends one message, optionally with a single attachment. A nil
// attachment sends a plain-text message.
type Mailer interface {
	Send(to, subject, body string, attachment []byte, filename string) error
}

// SMTPMailer sends mail through a plain SMTP endpoint. When host or port is
// unset, sending is simulated: the message is logged and discarded, which
// keeps local development working without credentials.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// NewSMTPMailer creates a mailer from SMTP settings.
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
	}
}

// Send builds the MIME message and hands it to the SMTP server.
func (m *SMTPMailer) Send(to, subject, body string, attachment []byte, filename string) error {
	if to == "" {
		return fmt.Errorf("no recipient configured")
	}

	message := BuildMessage(m.From, to, subject, body, attachment, filename)

	if m.Host == "" || m.Port == "" {
		log.Printf("SIMULATING EMAIL SEND:\n---BEGIN EMAIL---\nTo: %s\nFrom: %s\nSubject: %s\nAttachment: %s (%d bytes)\n\n%s\n---END EMAIL---",
			to, m.From, subject, filename, len(attachment), body)
		return nil
	}

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)

	if err := smtp.SendMail(addr, auth, m.From, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}
	log.Printf("Email sent to %s via %s (subject: %s)", to, addr, subject)
	return nil
}

const mimeBoundary = "ghl-adf-exporter-mime-boundary"

// BuildMessage constructs the raw RFC 822 message. With an attachment the
// message is multipart/mixed: a text part plus a base64 application/xml
// part. Exported so message construction stays testable without an SMTP
// server.
func BuildMessage(from, to, subject, body string, attachment []byte, filename string) []byte {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if len(attachment) == 0 {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(body)
		return []byte(msg.String())
	}

	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", mimeBoundary))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", mimeBoundary))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", mimeBoundary))
	msg.WriteString("Content-Type: application/xml; charset=UTF-8\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", filename))
	msg.WriteString("\r\n")
	msg.WriteString(encodeBase64Wrapped(attachment))
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("--%s--\r\n", mimeBoundary))

	return []byte(msg.String())
}

// encodeBase64Wrapped encodes with 76-character lines per RFC 2045.
func encodeBase64Wrapped(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var wrapped strings.Builder
	for len(encoded) > 76 {
		wrapped.WriteString(encoded[:76])
		wrapped.WriteString("\r\n")
		encoded = encoded[76:]
	}
	wrapped.WriteString(encoded)
	return wrapped.String()
}
