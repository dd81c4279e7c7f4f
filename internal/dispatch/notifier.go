package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"notifyd/internal/channel"
	"notifyd/internal/eventbus"
	"notifyd/pkg/logx"
)

// ErrAllChannelsFailed is returned (wrapped) when a fallback chain is
// exhausted without a single successful delivery. Which channels failed, and
// why, is visible in logs only.
var ErrAllChannelsFailed = errors.New("all notification channels failed")

type entry struct {
	name string
	ch   channel.Channel
}

// Notifier is the dispatch engine. It is created empty; channels and the
// fallback order are added during setup. After sends begin, the registry and
// order must not be mutated without external synchronization (the engine
// itself only reads them during a campaign).
type Notifier struct {
	log logx.Logger
	bus eventbus.Bus

	entries []entry
	// byName maps a name to its first registration. Later duplicates stay in
	// entries (broadcast still hits them) but are shadowed for lookup by
	// name: first match wins.
	byName map[string]int

	order []string
}

type Option func(*Notifier)

func WithLogger(log logx.Logger) Option { return func(n *Notifier) { n.log = log } }
func WithBus(bus eventbus.Bus) Option   { return func(n *Notifier) { n.bus = bus } }

func New(opts ...Option) *Notifier {
	n := &Notifier{log: logx.Nop(), byName: map[string]int{}}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// AddChannel validates ch and appends it to the registry under name. An empty
// name is auto-derived from ch.Kind(): lower-cased, trailing "channel"
// stripped, and suffixed "_N" when N already-registered names share the base
// as a prefix (the count is taken at registration time, so registration order
// determines the suffix sequence).
//
// The resolved name is returned. A validation failure aborts the
// registration and returns the channel's *ConfigError unchanged.
func (n *Notifier) AddChannel(ch channel.Channel, name string) (string, error) {
	if ch == nil {
		return "", errors.New("dispatch: nil channel")
	}
	if err := ch.ValidateConfig(); err != nil {
		return "", err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = n.deriveName(ch)
	}

	n.entries = append(n.entries, entry{name: name, ch: ch})
	if _, ok := n.byName[name]; !ok {
		n.byName[name] = len(n.entries) - 1
	}
	n.log.Debug("channel registered", logx.String("name", name), logx.String("kind", ch.Kind()))
	return name, nil
}

func (n *Notifier) deriveName(ch channel.Channel) string {
	base := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(ch.Kind())), "channel")
	if base == "" {
		base = "channel"
	}
	count := 0
	for _, e := range n.entries {
		if strings.HasPrefix(e.name, base) {
			count++
		}
	}
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, count)
}

// SetFallbackOrder replaces the fallback order wholesale. An empty (or nil)
// order means broadcast mode.
func (n *Notifier) SetFallbackOrder(order []string) {
	n.order = append([]string(nil), order...)
}

// FallbackOrder returns a copy of the current fallback order.
func (n *Notifier) FallbackOrder() []string {
	return append([]string(nil), n.order...)
}

// Names returns the registered channel names in registration order,
// duplicates included.
func (n *Notifier) Names() []string {
	out := make([]string, 0, len(n.entries))
	for _, e := range n.entries {
		out = append(out, e.name)
	}
	return out
}

// Send runs one campaign. recipients applies uniformly to every channel
// tried; when empty, each channel falls back to its own configured default
// list. The context is checked between channel attempts; a single attempt in
// flight is never interrupted by the engine itself.
func (n *Notifier) Send(ctx context.Context, message string, recipients []channel.Recipient) error {
	cid := uuid.NewString()
	log := n.log.With(logx.String("campaign", cid))

	if len(n.order) == 0 {
		return n.broadcast(ctx, log, cid, message, recipients)
	}
	return n.fallback(ctx, log, cid, message, recipients)
}

// broadcast sends to every registered channel in registration order and
// aborts on the first failure, propagating that channel's error verbatim.
func (n *Notifier) broadcast(ctx context.Context, log logx.Logger, cid, message string, recipients []channel.Recipient) error {
	log.Debug("fallback order not set; sending to all channels", logx.Int("channels", len(n.entries)))

	for _, e := range n.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		to := resolveRecipients(recipients, e.ch)
		if err := e.ch.Send(ctx, message, to); err != nil {
			log.Error("delivery failed", logx.String("channel", e.name), logx.Err(err))
			n.publish(eventbus.TypeFailed, cid, e, len(to), "broadcast", err)
			return err
		}
		log.Info("message sent", logx.String("channel", e.name), logx.Int("recipients", len(to)))
		n.publish(eventbus.TypeSent, cid, e, len(to), "broadcast", nil)
	}
	return nil
}

// fallback tries the configured names in order and stops at the first
// success. Unresolvable names and per-channel failures only contribute to
// exhaustion.
func (n *Notifier) fallback(ctx context.Context, log logx.Logger, cid, message string, recipients []channel.Recipient) error {
	for _, name := range n.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx, ok := n.byName[name]
		if !ok {
			log.Warn("channel not found in registry", logx.String("channel", name))
			n.publish(eventbus.TypeSkipped, cid, entry{name: name}, 0, "fallback", nil)
			continue
		}
		e := n.entries[idx]
		to := resolveRecipients(recipients, e.ch)
		if err := e.ch.Send(ctx, message, to); err != nil {
			log.Error("delivery failed; trying next channel", logx.String("channel", e.name), logx.Err(err))
			n.publish(eventbus.TypeFailed, cid, e, len(to), "fallback", err)
			continue
		}
		log.Info("message sent", logx.String("channel", e.name), logx.Int("recipients", len(to)))
		n.publish(eventbus.TypeSent, cid, e, len(to), "fallback", nil)
		return nil
	}

	n.publish(eventbus.TypeExhausted, cid, entry{}, 0, "fallback", nil)
	return fmt.Errorf("%w: %d name(s) tried", ErrAllChannelsFailed, len(n.order))
}

func (n *Notifier) publish(typ, cid string, e entry, recipients int, mode string, cause error) {
	if n.bus == nil {
		return
	}
	ev := eventbus.DeliveryEvent{
		CampaignID: cid,
		Channel:    e.name,
		Recipients: recipients,
		Mode:       mode,
		At:         time.Now(),
	}
	if e.ch != nil {
		ev.Kind = e.ch.Kind()
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	n.bus.Publish(eventbus.Event{Type: typ, Time: ev.At, Data: ev})
}

// resolveRecipients picks the campaign's explicit list when it is non-empty,
// else the channel's own defaults. An explicit empty list counts as omitted,
// matching the "recipients or defaults" resolution rule.
func resolveRecipients(explicit []channel.Recipient, ch channel.Channel) []channel.Recipient {
	if len(explicit) > 0 {
		return explicit
	}
	return ch.DefaultRecipients()
}
