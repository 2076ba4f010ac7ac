package config

import (
	"fmt"
	"os"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}

	if c.Drift != nil && c.Drift.Driver != "" {
		switch c.Drift.Driver {
		case "postgres", "duckdb":
		default:
			return fmt.Errorf("unsupported drift driver %q (want postgres or duckdb)", c.Drift.Driver)
		}
	}

	// Directory existence is checked by commands that need it, so help and
	// version keep working without one.
	return nil
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.Dir); os.IsNotExist(err) {
		return fmt.Errorf("model directory does not exist: %s\nHint: Create the directory or use --dir to specify a different path", c.Dir)
	}
	return nil
}
