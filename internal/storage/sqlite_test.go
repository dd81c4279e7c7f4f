package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"notifyd/pkg/logx"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "notifyd.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	entries := []DeliveryEntry{
		{CampaignID: "c1", Event: "failed", Channel: "tg", Kind: "telegram", Mode: "fallback", Recipients: 2, Error: "chat not found"},
		{CampaignID: "c1", Event: "sent", Channel: "mail", Kind: "email", Mode: "fallback", Recipients: 2},
	}
	for _, e := range entries {
		if err := st.AppendDelivery(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := st.RecentDeliveries(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	// Newest first.
	if got[0].Event != "sent" || got[0].Channel != "mail" {
		t.Fatalf("newest entry = %+v", got[0])
	}
	if got[1].Error != "chat not found" {
		t.Fatalf("error not persisted: %+v", got[1])
	}
	if got[0].At.IsZero() {
		t.Fatal("timestamp not persisted")
	}
}
