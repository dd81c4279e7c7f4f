package storage

import (
	"context"

	"notifyd/internal/eventbus"
	"notifyd/pkg/logx"
)

// RunRecorder subscribes to dispatch lifecycle events and appends them to the
// store until ctx is cancelled. Append failures are logged and dropped; the
// delivery log is best-effort.
func RunRecorder(ctx context.Context, bus eventbus.Bus, store Store, log logx.Logger) {
	if bus == nil || store == nil {
		return
	}
	events, unsub := bus.Subscribe(256)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			de, ok := ev.Data.(eventbus.DeliveryEvent)
			if !ok {
				continue
			}
			entry := DeliveryEntry{
				At:         ev.Time,
				CampaignID: de.CampaignID,
				Event:      shortType(ev.Type),
				Channel:    de.Channel,
				Kind:       de.Kind,
				Mode:       de.Mode,
				Recipients: de.Recipients,
				Error:      de.Error,
			}
			if err := store.AppendDelivery(ctx, entry); err != nil && ctx.Err() == nil {
				log.Warn("delivery log append failed", logx.Err(err))
			}
		}
	}
}

func shortType(t string) string {
	switch t {
	case eventbus.TypeSent:
		return "sent"
	case eventbus.TypeFailed:
		return "failed"
	case eventbus.TypeSkipped:
		return "skipped"
	case eventbus.TypeExhausted:
		return "exhausted"
	default:
		return t
	}
}
