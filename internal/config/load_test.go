package config

import (
	"strings"
	"testing"
)

const sampleYAML = `
logging:
  level: debug
  file:
    enabled: true
    path: /var/log/notifyd.log
channels:
  - type: telegram
    name: tg-ops
    telegram:
      token: "123:abc"
      recipients:
        - id: "1001"
          name: ops
  - type: email
    email:
      host: smtp.example.com
      port: 587
      user: bot@example.com
      password: secret
      recipients:
        - id: ops@example.com
  - type: webhook
    webhook:
      url: https://hooks.example.com/notify
      secret: hunter2
fallback_order: [tg-ops, email]
storage:
  driver: sqlite
  path: ./notifyd.db
  busy_timeout: 2s
http:
  enabled: true
  listen: 127.0.0.1:8475
  api_key: k
schedules:
  - name: heartbeat
    schedule: "0 * * * *"
    message: still alive
`

func TestParseYAML(t *testing.T) {
	t.Parallel()
	cfg, err := ParseBytes("config.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("ParseBytes error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging.level = %q", cfg.Logging.Level)
	}
	if !cfg.Logging.ConsoleEnabled() {
		t.Fatal("console should default to enabled")
	}
	if len(cfg.Channels) != 3 {
		t.Fatalf("channels = %d, want 3", len(cfg.Channels))
	}
	if cfg.Channels[0].Telegram == nil || cfg.Channels[0].Telegram.Token != "123:abc" {
		t.Fatalf("telegram block not decoded: %+v", cfg.Channels[0])
	}
	if got := cfg.FallbackOrder; len(got) != 2 || got[0] != "tg-ops" {
		t.Fatalf("fallback_order = %v", got)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "sqlite" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if len(cfg.Schedules) != 1 || cfg.Schedules[0].Schedule != "0 * * * *" {
		t.Fatalf("schedules = %+v", cfg.Schedules)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := ParseBytes("config.yaml", []byte("loging:\n  level: info\n"))
	if err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestParseRejectsMismatchedChannelBlock(t *testing.T) {
	t.Parallel()
	in := `
channels:
  - type: telegram
    email:
      host: smtp.example.com
      port: 587
`
	_, err := ParseBytes("config.yaml", []byte(in))
	if err == nil || !strings.Contains(err.Error(), "telegram block") {
		t.Fatalf("error = %v, want missing telegram block", err)
	}
}

func TestParseRejectsUnresolvableFallbackName(t *testing.T) {
	t.Parallel()
	in := `
channels:
  - type: webhook
    name: hook
    webhook:
      url: https://hooks.example.com
fallback_order: [hok]
`
	_, err := ParseBytes("config.yaml", []byte(in))
	if err == nil || !strings.Contains(err.Error(), "fallback_order") {
		t.Fatalf("error = %v, want fallback_order mismatch", err)
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", "1m30s"); err != nil || d.Seconds() != 90 {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty: got %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("negative duration accepted")
	}
	if _, err := ParseDurationField("x", "soon"); err == nil {
		t.Fatal("garbage duration accepted")
	}
}
