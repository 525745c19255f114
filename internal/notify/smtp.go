// Package notify delivers stock alerts by email.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/stockroom-ims/stockroom/internal/shared"
)

// ErrCredentialsMissing is returned by Send when no relay login is configured.
var ErrCredentialsMissing = errors.New("notify: smtp credentials missing")

const dialTimeout = 10 * time.Second

// SMTPConfig describes the relay and the alert envelope.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

func (c SMTPConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Message is one outgoing email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Bytes renders the message as RFC 5322 text with CRLF line endings.
func (m Message) Bytes() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// DeliverFunc hands a message to a relay.
type DeliverFunc func(ctx context.Context, cfg SMTPConfig, msg Message) error

// SMTPSender sends plain-text mail through an authenticated STARTTLS relay.
// Each Send is a single attempt.
type SMTPSender struct {
	cfg     SMTPConfig
	deliver DeliverFunc
}

// NewSMTPSender constructs SMTPSender. Missing credentials are reported per
// Send so the application still starts without a mail account.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, deliver: deliverSMTP}
}

// WithDeliver swaps the transport, mainly for tests.
func (s *SMTPSender) WithDeliver(fn DeliverFunc) *SMTPSender {
	s.deliver = fn
	return s
}

// Configured reports whether credentials are present.
func (s *SMTPSender) Configured() bool {
	return s.cfg.Username != "" && s.cfg.Password != ""
}

// Send mails subject and body from the configured sender to the receiver.
func (s *SMTPSender) Send(ctx context.Context, subject, body string) error {
	if !s.Configured() {
		return ErrCredentialsMissing
	}
	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}
	if s.cfg.To == "" {
		return fmt.Errorf("notify: alert receiver missing: %w", shared.ErrConfiguration)
	}
	msg := Message{From: from, To: s.cfg.To, Subject: subject, Body: body}
	if err := s.deliver(ctx, s.cfg, msg); err != nil {
		return fmt.Errorf("notify: send %q: %w: %w", subject, shared.ErrDependency, err)
	}
	return nil
}

func deliverSMTP(ctx context.Context, cfg SMTPConfig, msg Message) error {
	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.addr())
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
		return err
	}
	if err := client.Mail(msg.From); err != nil {
		return err
	}
	if err := client.Rcpt(msg.To); err != nil {
		return err
	}
	wc, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg.Bytes()); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return client.Quit()
}
