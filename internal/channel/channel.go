package channel

import "context"

// Recipient is an addressable destination for one channel.
//
// ID is channel-specific: a chat id for Telegram, an email address for SMTP,
// an opaque destination key for webhooks. Name is a human-readable label used
// in logs only. Recipients are immutable values; channels and call sites pass
// them around by value.
type Recipient struct {
	ID   string
	Name string
}

// Channel is a named transport the dispatch engine can invoke.
type Channel interface {
	// Kind returns the channel's type tag (e.g. "telegram", "email",
	// "webhook"). The engine derives registry names from it when the caller
	// does not supply one.
	Kind() string

	// DefaultRecipients returns the channel's own configured destination
	// list, used when a send does not carry an explicit recipient list.
	DefaultRecipients() []Recipient

	// ValidateConfig checks the channel's static configuration. It returns a
	// *ConfigError when the configuration cannot possibly deliver anything.
	// It must not perform network I/O.
	ValidateConfig() error

	// Send delivers message to every recipient in to. Implementations must
	// attempt all recipients and return a *DeliveryError if any attempt
	// failed. An empty list is a no-op success.
	Send(ctx context.Context, message string, to []Recipient) error
}
