// Package email delivers notifications over SMTP.
//
// Each recipient gets its own message and its own SMTP session, so a
// rejected recipient never poisons delivery to the rest of the list.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"notifyd/internal/channel"
	"notifyd/pkg/logx"
)

// Kind is the channel type tag.
const Kind = "email"

type Config struct {
	Host     string
	Port     int
	User     string
	Password string

	// From defaults to User when empty.
	From string

	// Subject for outgoing mail; defaults to "Notification".
	Subject string

	Timeout time.Duration

	Recipients []channel.Recipient
}

// Dialer abstracts net.Dialer to simplify testing.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type Option func(*Channel)

// WithDialer swaps the network dialer used to establish SMTP connections.
func WithDialer(d Dialer) Option {
	return func(c *Channel) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithTLSConfig overrides the TLS configuration used for STARTTLS.
// A nil config disables STARTTLS entirely (plaintext test servers).
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Channel) {
		c.tlsConfig = cfg
		c.tlsSet = true
	}
}

type Channel struct {
	cfg       Config
	log       logx.Logger
	dialer    Dialer
	tlsConfig *tls.Config
	tlsSet    bool
}

func New(cfg Config, log logx.Logger, opts ...Option) *Channel {
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Channel{
		cfg:    cfg,
		log:    log,
		dialer: &net.Dialer{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if !c.tlsSet {
		c.tlsConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}
	return c
}

func (c *Channel) Kind() string { return Kind }

func (c *Channel) DefaultRecipients() []channel.Recipient {
	return c.cfg.Recipients
}

func (c *Channel) ValidateConfig() error {
	if strings.TrimSpace(c.cfg.Host) == "" {
		return channel.Configf(Kind, "smtp host is required")
	}
	if c.cfg.Port <= 0 || c.cfg.Port > 65535 {
		return channel.Configf(Kind, "invalid smtp port %d", c.cfg.Port)
	}
	if strings.TrimSpace(c.cfg.User) == "" && strings.TrimSpace(c.cfg.From) == "" {
		return channel.Configf(Kind, "a from address (or smtp user) is required")
	}
	for _, r := range c.cfg.Recipients {
		if _, err := mail.ParseAddress(r.ID); err != nil {
			return channel.Configf(Kind, "recipient %q: invalid address %q", r.Name, r.ID)
		}
	}
	return nil
}

func (c *Channel) from() string {
	if strings.TrimSpace(c.cfg.From) != "" {
		return strings.TrimSpace(c.cfg.From)
	}
	return strings.TrimSpace(c.cfg.User)
}

func (c *Channel) subject() string {
	if strings.TrimSpace(c.cfg.Subject) != "" {
		return c.cfg.Subject
	}
	return "Notification"
}

func (c *Channel) Send(ctx context.Context, message string, to []channel.Recipient) error {
	errs := make([]error, 0, len(to))
	for _, r := range to {
		addr, err := mail.ParseAddress(r.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("recipient %s: invalid address %q", r.Name, r.ID))
			continue
		}
		if err := c.deliver(ctx, addr.Address, buildMessage(c.from(), addr.Address, c.subject(), message)); err != nil {
			c.log.Error("send failed", logx.String("recipient", r.Name), logx.Err(err))
			errs = append(errs, fmt.Errorf("recipient %s (%s): %w", r.Name, addr.Address, err))
			continue
		}
		c.log.Debug("sent", logx.String("recipient", r.Name), logx.String("to", addr.Address))
	}
	return channel.Delivery(Kind, len(to), errs...)
}

// deliver runs one SMTP session for one recipient.
func (c *Channel) deliver(ctx context.Context, rcpt string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// Tear the connection down if the context dies mid-session.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	client, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		return fmt.Errorf("new client: %w", err)
	}
	defer client.Close()

	if c.tlsConfig != nil {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(c.tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if strings.TrimSpace(c.cfg.User) != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", c.cfg.User, c.cfg.Password, c.cfg.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}

	if err := client.Mail(c.from()); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(rcpt); err != nil {
		return fmt.Errorf("rcpt to %s: %w", rcpt, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("data write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close: %w", err)
	}

	_ = client.Quit()
	return ctx.Err()
}

func buildMessage(from, to, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", sanitizeHeader(from))
	fmt.Fprintf(&buf, "To: %s\r\n", sanitizeHeader(to))
	fmt.Fprintf(&buf, "Subject: %s\r\n", sanitizeHeader(subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(normalizeBody(body))
	return buf.Bytes()
}

func normalizeBody(body string) string {
	if body == "" {
		return ""
	}
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}

func sanitizeHeader(v string) string {
	clean := strings.ReplaceAll(v, "\r", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	return strings.TrimSpace(clean)
}
