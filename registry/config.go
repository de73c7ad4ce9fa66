package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailored-agentic-units/state/state"
)

// Config holds initialization parameters for a Registry and the containers
// it creates.
//
// Example JSON:
//
//	{
//	  "observer": "slog",
//	  "container": {
//	    "observer": "noop",
//	    "source": "app.state"
//	  }
//	}
type Config struct {
	// Observer names the observer for registry events
	Observer string `json:"observer"`

	// Container configures every container created by Register
	Container state.Config `json:"container"`
}

// DefaultConfig returns the default registry configuration: registry and
// container events both go to the "slog" observer.
func DefaultConfig() Config {
	return Config{
		Observer:  "slog",
		Container: state.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Observer != "" {
		c.Observer = source.Observer
	}

	c.Container.Merge(&source.Container)
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
