package app

import (
	"testing"

	"notifyd/internal/config"
	"notifyd/internal/dispatch"
	"notifyd/pkg/logx"
)

func TestBuildChannelsRegistersInOrder(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Channels: []config.ChannelConfig{
			{Type: "webhook", Webhook: &config.WebhookConfig{URL: "https://example.com/a"}},
			{Type: "webhook", Name: "ops", Webhook: &config.WebhookConfig{URL: "https://example.com/b"}},
			{Type: "email", Email: &config.EmailConfig{
				Host: "smtp.example.com", Port: 587, User: "bot@example.com",
				Recipients: []config.RecipientConfig{{ID: "oncall@example.com"}},
			}},
		},
	}

	n := dispatch.New()
	built, err := buildChannels(cfg, n, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"webhook", "ops", "email"}
	if len(built) != len(want) {
		t.Fatalf("built %d channels, want %d", len(built), len(want))
	}
	for i, name := range want {
		if built[i].name != name {
			t.Errorf("built[%d].name = %q, want %q", i, built[i].name, name)
		}
	}
}

func TestBuildChannelsUnknownType(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Channels: []config.ChannelConfig{{Type: "pager"}}}
	if _, err := buildChannels(cfg, dispatch.New(), logx.Nop()); err == nil {
		t.Fatal("expected error for unknown channel type")
	}
}

func TestBuildChannelsRejectsBadDuration(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Channels: []config.ChannelConfig{
			{Type: "webhook", Webhook: &config.WebhookConfig{URL: "https://example.com", Timeout: "fast"}},
		},
	}
	if _, err := buildChannels(cfg, dispatch.New(), logx.Nop()); err == nil {
		t.Fatal("expected error for unparsable timeout")
	}
}
