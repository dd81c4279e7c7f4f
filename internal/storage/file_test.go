package storage

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"notifyd/pkg/logx"
)

func TestFileStoreAppendAndRecent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "deliveries.jsonl")
	st, err := openFile(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("openFile: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		e := DeliveryEntry{
			At:         time.Now(),
			CampaignID: "c" + strconv.Itoa(i),
			Event:      "sent",
			Channel:    "telegram",
			Mode:       "broadcast",
		}
		if err := st.AppendDelivery(ctx, e); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := st.RecentDeliveries(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	// Newest first.
	if got[0].CampaignID != "c4" || got[2].CampaignID != "c2" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestFileStoreEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "deliveries.jsonl")
	st, err := openFile(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	got, err := st.RecentDeliveries(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent on empty store: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d entries, want 0", len(got))
	}
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("driver %q: got (%v, %v), want (nil, nil)", driver, st, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
