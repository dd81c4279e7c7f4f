// Package telegram delivers notifications through the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"notifyd/internal/channel"
	"notifyd/pkg/logx"
)

// Kind is the channel type tag.
const Kind = "telegram"

type Config struct {
	Token string

	// APIURL overrides the Bot API endpoint (tests, self-hosted bot API).
	// Empty means the official endpoint.
	APIURL string

	// ParseMode is passed through to sendMessage ("", "Markdown", "HTML").
	ParseMode string

	// RatePerSec caps outbound messages. Telegram throttles bots hard, so
	// the default of 0 (no limit) is only sensible for tiny recipient lists.
	RatePerSec int

	Timeout time.Duration

	Recipients []channel.Recipient
}

type Channel struct {
	cfg     Config
	log     logx.Logger
	limiter *rate.Limiter

	initOnce sync.Once
	bot      *tele.Bot
	initErr  error
}

func New(cfg Config, log logx.Logger) *Channel {
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Channel{cfg: cfg, log: log}
	if cfg.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return c
}

func (c *Channel) Kind() string { return Kind }

func (c *Channel) DefaultRecipients() []channel.Recipient {
	return c.cfg.Recipients
}

func (c *Channel) ValidateConfig() error {
	if strings.TrimSpace(c.cfg.Token) == "" {
		return channel.Configf(Kind, "bot token is required")
	}
	if len(c.cfg.Recipients) == 0 {
		return channel.Configf(Kind, "at least one recipient is required")
	}
	for _, r := range c.cfg.Recipients {
		if _, err := chatID(r); err != nil {
			return channel.Configf(Kind, "recipient %q: %v", r.Name, err)
		}
	}
	return nil
}

// init builds the telebot client on first use. Offline mode skips the getMe
// round-trip: the token is effectively verified by the first sendMessage
// instead, which keeps ValidateConfig free of network I/O.
func (c *Channel) init() (*tele.Bot, error) {
	c.initOnce.Do(func() {
		timeout := c.cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		c.bot, c.initErr = tele.NewBot(tele.Settings{
			Token:   c.cfg.Token,
			URL:     c.cfg.APIURL,
			Offline: true,
			Client:  &http.Client{Timeout: timeout},
		})
	})
	return c.bot, c.initErr
}

func (c *Channel) Send(ctx context.Context, message string, to []channel.Recipient) error {
	bot, err := c.init()
	if err != nil {
		return &channel.DeliveryError{Kind: Kind, Attempted: len(to), Failed: len(to), Err: err}
	}

	opts := &tele.SendOptions{
		ParseMode:             c.cfg.ParseMode,
		DisableWebPagePreview: true,
	}

	errs := make([]error, 0, len(to))
	for _, r := range to {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				errs = append(errs, fmt.Errorf("recipient %s: %w", r.Name, err))
				continue
			}
		}
		id, err := chatID(r)
		if err != nil {
			errs = append(errs, fmt.Errorf("recipient %s: %w", r.Name, err))
			continue
		}
		if _, err := bot.Send(tele.ChatID(id), message, opts); err != nil {
			c.log.Error("send failed", logx.String("recipient", r.Name), logx.Err(err))
			errs = append(errs, fmt.Errorf("recipient %s (chat %d): %w", r.Name, id, err))
			continue
		}
		c.log.Debug("sent", logx.String("recipient", r.Name), logx.Int64("chat_id", id))
	}
	return channel.Delivery(Kind, len(to), errs...)
}

func chatID(r channel.Recipient) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.ID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chat id %q is not numeric", r.ID)
	}
	return id, nil
}
