package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notifyd/internal/channel"
	"notifyd/internal/dispatch"
	"notifyd/pkg/logx"
)

type stubChannel struct {
	kind    string
	sendErr error
	sent    []string
}

func (c *stubChannel) Kind() string                           { return c.kind }
func (c *stubChannel) DefaultRecipients() []channel.Recipient { return nil }
func (c *stubChannel) ValidateConfig() error                  { return nil }
func (c *stubChannel) Send(_ context.Context, message string, _ []channel.Recipient) error {
	c.sent = append(c.sent, message)
	return c.sendErr
}

func newTestServer(t *testing.T, apiKey string, ch *stubChannel) *httptest.Server {
	t.Helper()
	n := dispatch.New()
	if _, err := n.AddChannel(ch, "stub"); err != nil {
		t.Fatal(err)
	}
	s := New(Config{APIKey: apiKey}, n, nil, logx.Nop())
	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestNotifyEndpoint(t *testing.T) {
	t.Parallel()
	ch := &stubChannel{kind: "webhook"}
	srv := newTestServer(t, "", ch)

	resp, err := http.Post(srv.URL+"/v1/notify", "application/json",
		strings.NewReader(`{"message":"deploy done"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(ch.sent) != 1 || ch.sent[0] != "deploy done" {
		t.Fatalf("channel saw %v", ch.sent)
	}
}

func TestNotifyEndpointDeliveryFailure(t *testing.T) {
	t.Parallel()
	ch := &stubChannel{kind: "webhook", sendErr: errors.New("endpoint down")}
	srv := newTestServer(t, "", ch)

	resp, err := http.Post(srv.URL+"/v1/notify", "application/json",
		strings.NewReader(`{"message":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestNotifyEndpointRejectsEmptyMessage(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, "", &stubChannel{kind: "webhook"})

	resp, err := http.Post(srv.URL+"/v1/notify", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, "sekrit", &stubChannel{kind: "webhook"})

	// Missing token.
	resp, err := http.Post(srv.URL+"/v1/notify", "application/json", strings.NewReader(`{"message":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", resp.StatusCode)
	}

	// Correct token.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/notify", strings.NewReader(`{"message":"x"}`))
	req.Header.Set("Authorization", "Bearer sekrit")
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", resp.StatusCode)
	}

	// Health stays public.
	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", resp.StatusCode)
	}
	var health struct {
		Status   string   `json:"status"`
		Channels []string `json:"channels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || len(health.Channels) != 1 {
		t.Fatalf("health = %+v", health)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, "", &stubChannel{kind: "webhook"})

	resp, err := http.Get(srv.URL + "/v1/history")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}
