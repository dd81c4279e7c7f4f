package config

// Config is the root of notifyd's configuration file (YAML or JSON).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Channels are registered in file order; order matters for broadcast
	// mode and for auto-derived name suffixes.
	Channels []ChannelConfig `json:"channels"`

	// FallbackOrder switches the dispatcher from broadcast mode to
	// first-success-wins fallback mode.
	FallbackOrder []string `json:"fallback_order,omitempty"`

	// AlertChannel names the channel used by the logging escalation sink.
	// Empty disables escalation even when logging.escalate is enabled.
	AlertChannel string `json:"alert_channel,omitempty"`

	Storage *StorageConfig `json:"storage,omitempty"`
	HTTP    *HTTPConfig    `json:"http,omitempty"`

	Schedules []ScheduleConfig `json:"schedules,omitempty"`

	// WatchConfig reloads the logging section when the file changes.
	// Channels and fallback order are setup-time only and never reloaded.
	WatchConfig bool `json:"watch_config,omitempty"`
}

type LoggingConfig struct {
	Level    string            `json:"level,omitempty"`
	Console  *bool             `json:"console,omitempty"` // nil means true
	File     FileLogConfig     `json:"file,omitempty"`
	Escalate EscalateLogConfig `json:"escalate,omitempty"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

type EscalateLogConfig struct {
	Enabled    bool   `json:"enabled,omitempty"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// ChannelConfig declares one delivery channel. Exactly one of the
// type-specific blocks must be set, matching Type.
type ChannelConfig struct {
	Type string `json:"type"`           // "telegram", "email", "webhook"
	Name string `json:"name,omitempty"` // empty: auto-derived by the dispatcher

	Telegram *TelegramConfig `json:"telegram,omitempty"`
	Email    *EmailConfig    `json:"email,omitempty"`
	Webhook  *WebhookConfig  `json:"webhook,omitempty"`
}

type RecipientConfig struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type TelegramConfig struct {
	Token      string            `json:"token"`
	APIURL     string            `json:"api_url,omitempty"`
	ParseMode  string            `json:"parse_mode,omitempty"`
	RatePerSec int               `json:"rate_per_sec,omitempty"`
	Timeout    string            `json:"timeout,omitempty"`
	Recipients []RecipientConfig `json:"recipients"`
}

type EmailConfig struct {
	Host       string            `json:"host"`
	Port       int               `json:"port"`
	User       string            `json:"user,omitempty"`
	Password   string            `json:"password,omitempty"`
	From       string            `json:"from,omitempty"`
	Subject    string            `json:"subject,omitempty"`
	Timeout    string            `json:"timeout,omitempty"`
	Recipients []RecipientConfig `json:"recipients"`
}

type WebhookConfig struct {
	URL        string            `json:"url"`
	Secret     string            `json:"secret,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Timeout    string            `json:"timeout,omitempty"`
	Recipients []RecipientConfig `json:"recipients,omitempty"`
}

// StorageConfig controls the optional delivery log.
//
// Driver values:
//   - "file": dependency-free jsonl backend
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", the delivery log is disabled.
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// HTTPConfig controls the optional HTTP ingress.
//
// Security note: prefer binding to localhost. If you bind to a non-loopback
// address, set an API key.
type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen,omitempty"` // default "127.0.0.1:8475"
	APIKey  string `json:"api_key,omitempty"`
}

// ScheduleConfig emits a fixed notification on a cron schedule.
type ScheduleConfig struct {
	Name       string            `json:"name"`
	Schedule   string            `json:"schedule"` // cron spec or @every descriptor
	Message    string            `json:"message"`
	Recipients []RecipientConfig `json:"recipients,omitempty"`
}
