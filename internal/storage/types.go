package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free jsonl backend
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// DeliveryEntry records one dispatch lifecycle event.
// Keep it compact and schema-stable.
type DeliveryEntry struct {
	At         time.Time `json:"at"`
	CampaignID string    `json:"campaign_id"`
	Event      string    `json:"event"` // sent, failed, skipped, exhausted
	Channel    string    `json:"channel,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Mode       string    `json:"mode,omitempty"`
	Recipients int       `json:"recipients,omitempty"`
	Error      string    `json:"error,omitempty"`
}
