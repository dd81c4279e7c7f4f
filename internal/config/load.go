package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// Parse reads and strictly decodes the config file at path. Unknown fields
// are rejected for both YAML and JSON inputs.
func Parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBytes(path, b)
}

func ParseBytes(path string, data []byte) (*Config, error) {
	jb, format, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s config: %w", format, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	names := map[string]bool{}
	for i, ch := range cfg.Channels {
		prefix := fmt.Sprintf("channels[%d]", i)
		switch strings.ToLower(strings.TrimSpace(ch.Type)) {
		case "telegram":
			if ch.Telegram == nil {
				return fmt.Errorf("%s: telegram block is required", prefix)
			}
		case "email":
			if ch.Email == nil {
				return fmt.Errorf("%s: email block is required", prefix)
			}
		case "webhook":
			if ch.Webhook == nil {
				return fmt.Errorf("%s: webhook block is required", prefix)
			}
		case "":
			return fmt.Errorf("%s: type is required", prefix)
		default:
			return fmt.Errorf("%s: unknown type %q", prefix, ch.Type)
		}
		if ch.Name != "" {
			names[ch.Name] = true
		}
	}

	// Fallback names that can never resolve are almost certainly typos.
	// Auto-derived names are not knowable here, so only flag when every
	// channel is explicitly named.
	allNamed := true
	for _, ch := range cfg.Channels {
		if ch.Name == "" {
			allNamed = false
			break
		}
	}
	if allNamed {
		for _, name := range cfg.FallbackOrder {
			if !names[name] {
				return fmt.Errorf("fallback_order: %q does not match any configured channel", name)
			}
		}
	}

	for i, s := range cfg.Schedules {
		if strings.TrimSpace(s.Schedule) == "" {
			return fmt.Errorf("schedules[%d]: schedule is required", i)
		}
		if strings.TrimSpace(s.Message) == "" {
			return fmt.Errorf("schedules[%d]: message is required", i)
		}
	}
	return nil
}

// ConsoleEnabled resolves the tri-state console flag (nil means on).
func (l LoggingConfig) ConsoleEnabled() bool {
	return l.Console == nil || *l.Console
}

// coerceToJSONBytes converts YAML config to JSON bytes so we can re-use the
// strict JSON decoder (DisallowUnknownFields) for both formats.
//
// Returns (jsonBytes, format, err) where format is "json" or "yaml".
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, "json", nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, "yaml", fmt.Errorf("yaml unmarshal: %w", err)
	}

	v = normalizeYAML(v)

	j, err := json.Marshal(v)
	if err != nil {
		return nil, "yaml", fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, "yaml", nil
}

// normalizeYAML ensures all map keys are strings so the result can be
// JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
