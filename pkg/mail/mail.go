// Package mail sends email through SMTP with a fluent builder.
//
// GiftBid uses it for the contact-form relay to the support inbox:
//
//	mail.To(config.SupportEmail()).
//	    Subject("Contact form message").
//	    ReplyTo(sender).
//	    Text(body).
//	    Send()
package mail

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/shashiranjanraj/giftbid/config"
)

// SMTP holds the server credentials, populated from env/config.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

func defaultSMTP() SMTP {
	return SMTP{
		Host:     config.Get("MAIL_HOST", "smtp.mailtrap.io"),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.Get("MAIL_FROM", "no-reply@giftbid.app"),
		FromName: config.Get("MAIL_FROM_NAME", "GiftBid"),
	}
}

// Message is a fluent email builder. Construct with To, then chain.
type Message struct {
	to      []string
	cc      []string
	bcc     []string
	subject string
	body    string
	isHTML  bool
	replyTo string
	smtpCfg SMTP
}

// To starts a message to the given recipients.
func To(addresses ...string) *Message {
	return &Message{to: addresses, isHTML: true, smtpCfg: defaultSMTP()}
}

// CC adds carbon-copy recipients.
func (m *Message) CC(addresses ...string) *Message {
	m.cc = append(m.cc, addresses...)
	return m
}

// BCC adds blind-carbon-copy recipients.
func (m *Message) BCC(addresses ...string) *Message {
	m.bcc = append(m.bcc, addresses...)
	return m
}

// Subject sets the subject line.
func (m *Message) Subject(s string) *Message {
	m.subject = s
	return m
}

// Body sets an HTML body.
func (m *Message) Body(html string) *Message {
	m.body = html
	m.isHTML = true
	return m
}

// Text sets a plain-text body.
func (m *Message) Text(text string) *Message {
	m.body = text
	m.isHTML = false
	return m
}

// ReplyTo sets the Reply-To header so support answers reach the sender
// rather than the no-reply address.
func (m *Message) ReplyTo(address string) *Message {
	m.replyTo = address
	return m
}

// UseConfig overrides the SMTP settings for this message only.
func (m *Message) UseConfig(cfg SMTP) *Message {
	m.smtpCfg = cfg
	return m
}

// Send delivers the message. Port 465 gets implicit TLS; 587/25 use the
// stdlib STARTTLS path.
func (m *Message) Send() error {
	cfg := m.smtpCfg
	if cfg.Username == "" {
		return fmt.Errorf("mail: MAIL_USERNAME not configured")
	}

	recipients := make([]string, 0, len(m.to)+len(m.cc)+len(m.bcc))
	recipients = append(recipients, m.to...)
	recipients = append(recipients, m.cc...)
	recipients = append(recipients, m.bcc...)

	raw := m.raw(fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From))
	addr := cfg.Host + ":" + cfg.Port
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)

	if cfg.Port == "465" {
		return m.sendImplicitTLS(addr, cfg.Host, auth, cfg.From, recipients, raw)
	}
	return smtp.SendMail(addr, auth, cfg.From, recipients, raw)
}

func (m *Message) sendImplicitTLS(addr, host string, auth smtp.Auth, from string, to []string, raw []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = w.Write(raw)
	return err
}

// raw assembles the RFC 5322 message bytes.
func (m *Message) raw(from string) []byte {
	contentType := "text/plain"
	if m.isHTML {
		contentType = "text/html"
	}

	var b strings.Builder
	write := func(k, v string) { b.WriteString(k + ": " + v + "\r\n") }

	write("From", from)
	write("To", strings.Join(m.to, ", "))
	if len(m.cc) > 0 {
		write("Cc", strings.Join(m.cc, ", "))
	}
	if m.replyTo != "" {
		write("Reply-To", m.replyTo)
	}
	write("Subject", m.subject)
	write("MIME-Version", "1.0")
	write("Content-Type", contentType+`; charset="UTF-8"`)
	b.WriteString("\r\n")
	b.WriteString(m.body)
	return []byte(b.String())
}
