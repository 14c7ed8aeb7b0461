package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// applyDefaults fills fields no source provided.
func (c *StructuredConfig) applyDefaults() {
	if c.Storage.DataDir == "" {
		if base, err := os.UserConfigDir(); err == nil {
			c.Storage.DataDir = filepath.Join(base, "clinvault")
		} else {
			c.Storage.DataDir = "clinvault-data"
		}
	}
	if c.Clipboard.AutoClearSeconds == 0 {
		c.Clipboard.AutoClearSeconds = 30
	}
	if c.Workers.ChainVerifyInterval == 0 {
		c.Workers.ChainVerifyInterval = 10 * time.Minute
	}
}

// validate rejects structurally impossible configurations.
func (c *StructuredConfig) validate() error {
	if c.Clipboard.AutoClearSeconds < 0 {
		return fmt.Errorf("%w: clipboard auto-clear seconds must not be negative", ErrInvalidConfig)
	}
	if c.Clipboard.MaxContentLength < 0 {
		return fmt.Errorf("%w: clipboard max content length must not be negative", ErrInvalidConfig)
	}
	if c.Workers.ChainVerifyInterval < time.Minute {
		return fmt.Errorf("%w: chain verify interval must be at least one minute", ErrInvalidConfig)
	}
	return nil
}
