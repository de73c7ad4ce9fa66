package state

import (
	"fmt"

	"github.com/tailored-agentic-units/state/observability"
)

const defaultSource = "state"

// Config controls how containers report events.
//
// Observer is a name resolved through observability.GetObserver so that
// configuration can be loaded from JSON.
//
// Example JSON:
//
//	{
//	  "observer": "slog",
//	  "source": "checkout.cart"
//	}
type Config struct {
	// Observer names the observer implementation ("noop", "slog", ...)
	Observer string `json:"observer"`

	// Source labels events emitted by the container
	Source string `json:"source"`
}

// DefaultConfig returns the defaults used for config-driven containers:
// events go to the "slog" observer under the "state" source.
func DefaultConfig() Config {
	return Config{
		Observer: "slog",
		Source:   defaultSource,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.Source != "" {
		c.Source = source.Source
	}
}

// Options resolves the config into container options. A nil config
// resolves to DefaultConfig.
func (c *Config) Options() ([]Option, error) {
	cfg := DefaultConfig()
	if c != nil {
		cfg.Merge(c)
	}

	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	return []Option{
		WithObserver(observer),
		WithSource(cfg.Source),
	}, nil
}
