package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"notifyd/internal/channel"
	"notifyd/pkg/logx"
)

func TestValidateConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid", url: "https://hooks.example.com/notify"},
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "hooks.example.com/notify", wantErr: true},
		{name: "bad scheme", url: "ftp://hooks.example.com", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := New(Config{URL: tt.url}, logx.Nop())
			err := c.ValidateConfig()
			if tt.wantErr && err == nil {
				t.Fatal("expected config error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSendSignsAndPostsPerRecipient(t *testing.T) {
	t.Parallel()

	const secret = "hunter2"
	var (
		mu   sync.Mutex
		seen []payload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !VerifySignature(body, r.Header.Get(SignatureHeader), secret) {
			t.Errorf("bad signature header %q", r.Header.Get(SignatureHeader))
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		var p payload
		if err := json.Unmarshal(body, &p); err != nil {
			t.Errorf("unmarshal body: %v", err)
		}
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, Secret: secret}, logx.Nop())
	to := []channel.Recipient{
		{ID: "svc-1", Name: "primary"},
		{ID: "svc-2", Name: "secondary"},
	}
	if err := c.Send(context.Background(), "disk almost full", to); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("got %d requests, want 2", len(seen))
	}
	if seen[0].Recipient != "svc-1" || seen[1].Recipient != "svc-2" {
		t.Fatalf("recipient order = %v", seen)
	}
	if seen[0].Message != "disk almost full" {
		t.Fatalf("message = %q", seen[0].Message)
	}
}

func TestSendAttemptsAllRecipientsOnFailure(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		received []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p payload
		_ = json.Unmarshal(body, &p)
		mu.Lock()
		received = append(received, p.Recipient)
		mu.Unlock()
		if p.Recipient == "bad" {
			http.Error(w, "unknown destination", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL}, logx.Nop())
	to := []channel.Recipient{
		{ID: "bad", Name: "broken"},
		{ID: "good", Name: "working"},
	}
	err := c.Send(context.Background(), "hello", to)

	var de *channel.DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *channel.DeliveryError", err)
	}
	if de.Attempted != 2 || de.Failed != 1 {
		t.Fatalf("attempted/failed = %d/%d, want 2/1", de.Attempted, de.Failed)
	}

	mu.Lock()
	defer mu.Unlock()
	// The failing recipient must not short-circuit the rest.
	if len(received) != 2 {
		t.Fatalf("got %d requests, want 2 (attempt-all)", len(received))
	}
}

func TestVerifySignatureForms(t *testing.T) {
	t.Parallel()
	body := []byte(`{"message":"hi"}`)
	sig := signBody(body, "s3cret")

	if !VerifySignature(body, sig, "s3cret") {
		t.Fatal("plain hex form rejected")
	}
	if !VerifySignature(body, "sha256="+sig, "s3cret") {
		t.Fatal("sha256= form rejected")
	}
	if VerifySignature(body, sig, "wrong") {
		t.Fatal("wrong secret accepted")
	}
	if VerifySignature(body, "", "s3cret") {
		t.Fatal("empty signature accepted")
	}
}
