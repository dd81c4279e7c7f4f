package app

import (
	"fmt"
	"time"

	"notifyd/internal/channel"
	"notifyd/internal/channel/email"
	"notifyd/internal/channel/telegram"
	"notifyd/internal/channel/webhook"
	"notifyd/internal/config"
	"notifyd/internal/dispatch"
	"notifyd/pkg/logx"
)

// builtChannel pairs a constructed channel with the name the dispatcher
// assigned at registration.
type builtChannel struct {
	name string
	ch   channel.Channel
}

// buildChannels constructs every configured channel and registers it with
// the dispatcher in file order. Registration order matters: it fixes the
// broadcast sequence and the auto-derived name suffixes.
func buildChannels(cfg *config.Config, n *dispatch.Notifier, log logx.Logger) ([]builtChannel, error) {
	built := make([]builtChannel, 0, len(cfg.Channels))
	for i, cc := range cfg.Channels {
		ch, err := buildChannel(cc, log)
		if err != nil {
			return nil, fmt.Errorf("channels[%d]: %w", i, err)
		}
		name, err := n.AddChannel(ch, cc.Name)
		if err != nil {
			return nil, fmt.Errorf("channels[%d] (%s): %w", i, cc.Type, err)
		}
		built = append(built, builtChannel{name: name, ch: ch})
		log.Info("channel registered",
			logx.String("name", name),
			logx.String("type", cc.Type))
	}
	return built, nil
}

func buildChannel(cc config.ChannelConfig, log logx.Logger) (channel.Channel, error) {
	switch cc.Type {
	case telegram.Kind:
		timeout, err := config.ParseDurationOrDefault("telegram.timeout", cc.Telegram.Timeout, 10*time.Second)
		if err != nil {
			return nil, err
		}
		return telegram.New(telegram.Config{
			Token:      cc.Telegram.Token,
			APIURL:     cc.Telegram.APIURL,
			ParseMode:  cc.Telegram.ParseMode,
			RatePerSec: cc.Telegram.RatePerSec,
			Timeout:    timeout,
			Recipients: mapRecipients(cc.Telegram.Recipients),
		}, log.With(logx.String("comp", "telegram"))), nil

	case email.Kind:
		timeout, err := config.ParseDurationOrDefault("email.timeout", cc.Email.Timeout, 30*time.Second)
		if err != nil {
			return nil, err
		}
		return email.New(email.Config{
			Host:       cc.Email.Host,
			Port:       cc.Email.Port,
			User:       cc.Email.User,
			Password:   cc.Email.Password,
			From:       cc.Email.From,
			Subject:    cc.Email.Subject,
			Timeout:    timeout,
			Recipients: mapRecipients(cc.Email.Recipients),
		}, log.With(logx.String("comp", "email"))), nil

	case webhook.Kind:
		timeout, err := config.ParseDurationOrDefault("webhook.timeout", cc.Webhook.Timeout, 10*time.Second)
		if err != nil {
			return nil, err
		}
		return webhook.New(webhook.Config{
			URL:        cc.Webhook.URL,
			Secret:     cc.Webhook.Secret,
			Headers:    cc.Webhook.Headers,
			Timeout:    timeout,
			Recipients: mapRecipients(cc.Webhook.Recipients),
		}, log.With(logx.String("comp", "webhook"))), nil

	default:
		return nil, fmt.Errorf("unknown channel type %q", cc.Type)
	}
}

func mapRecipients(rcs []config.RecipientConfig) []channel.Recipient {
	if len(rcs) == 0 {
		return nil
	}
	out := make([]channel.Recipient, 0, len(rcs))
	for _, rc := range rcs {
		out = append(out, channel.Recipient{ID: rc.ID, Name: rc.Name})
	}
	return out
}
