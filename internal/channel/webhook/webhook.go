// Package webhook delivers notifications as signed JSON POSTs to a generic
// HTTP endpoint.
//
// Each recipient becomes one request with the payload
//
//	{"recipient": "<id>", "recipient_name": "<name>", "message": "<text>"}
//
// When a secret is configured, the body is signed with HMAC-SHA256 and the
// hex signature is sent as "X-Signature-256: sha256=<hex>" so receivers can
// verify authenticity with a constant-time compare.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notifyd/internal/channel"
	"notifyd/pkg/logx"
)

// Kind is the channel type tag.
const Kind = "webhook"

// SignatureHeader carries the HMAC-SHA256 body signature.
const SignatureHeader = "X-Signature-256"

type Config struct {
	URL string

	// Secret enables request signing. Empty disables the signature header.
	Secret string

	// Headers are added verbatim to every request.
	Headers map[string]string

	Timeout time.Duration

	Recipients []channel.Recipient
}

type payload struct {
	Recipient     string `json:"recipient"`
	RecipientName string `json:"recipient_name,omitempty"`
	Message       string `json:"message"`
}

type Channel struct {
	cfg  Config
	log  logx.Logger
	http *http.Client
}

func New(cfg Config, log logx.Logger) *Channel {
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Channel{cfg: cfg, log: log, http: &http.Client{Timeout: timeout}}
}

func (c *Channel) Kind() string { return Kind }

func (c *Channel) DefaultRecipients() []channel.Recipient {
	return c.cfg.Recipients
}

func (c *Channel) ValidateConfig() error {
	raw := strings.TrimSpace(c.cfg.URL)
	if raw == "" {
		return channel.Configf(Kind, "url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return channel.Configf(Kind, "invalid url %q", raw)
	}
	return nil
}

func (c *Channel) Send(ctx context.Context, message string, to []channel.Recipient) error {
	errs := make([]error, 0, len(to))
	for _, r := range to {
		if err := c.post(ctx, r, message); err != nil {
			c.log.Error("send failed", logx.String("recipient", r.Name), logx.Err(err))
			errs = append(errs, fmt.Errorf("recipient %s: %w", r.Name, err))
			continue
		}
		c.log.Debug("sent", logx.String("recipient", r.Name))
	}
	return channel.Delivery(Kind, len(to), errs...)
}

func (c *Channel) post(ctx context.Context, r channel.Recipient, message string) error {
	body, err := json.Marshal(payload{Recipient: r.ID, RecipientName: r.Name, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	if c.cfg.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+signBody(body, c.cfg.Secret))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Keep a slice of the body for diagnostics; receivers often explain
		// rejections in it.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
