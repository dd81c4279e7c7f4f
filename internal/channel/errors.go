package channel

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid static channel configuration. It is returned
// only from ValidateConfig; a channel that fails validation is never
// registered.
type ConfigError struct {
	Kind   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: invalid config: %s", e.Kind, e.Reason)
}

// Configf builds a *ConfigError for the given channel kind.
func Configf(kind, format string, args ...any) *ConfigError {
	return &ConfigError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// DeliveryError reports that a channel's send failed for this campaign.
// Attempted counts every recipient the channel tried; Failed counts the ones
// that errored. Err joins the per-recipient causes.
type DeliveryError struct {
	Kind      string
	Attempted int
	Failed    int
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: delivery failed for %d/%d recipient(s): %v", e.Kind, e.Failed, e.Attempted, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Delivery wraps per-recipient errors into a *DeliveryError. It returns nil
// when errs contains no non-nil error, so channels can collect into a slice
// and call it unconditionally.
func Delivery(kind string, attempted int, errs ...error) error {
	joined := errors.Join(errs...)
	if joined == nil {
		return nil
	}
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	return &DeliveryError{Kind: kind, Attempted: attempted, Failed: failed, Err: joined}
}
