package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateNinja(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateRelocate(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNinja() error {
	if c.Ninja.Binary == "" {
		return errors.New("ninja.binary must be set")
	}
	if c.Ninja.LockRetryMillis < 0 {
		return errors.New("ninja.lock_retry_millis must be non-negative")
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.Copies < 0 {
		return errors.New("export.copies must be non-negative")
	}
	return nil
}

func (c *Config) validateRelocate() error {
	if c.Relocate.ToleranceMinutes <= 0 {
		return errors.New("relocate.tolerance_minutes must be positive")
	}
	dest := c.Relocate.Destination
	if filepath.IsAbs(dest) {
		return fmt.Errorf("relocate.destination %q must be relative to the working directory", dest)
	}
	if cleaned := filepath.Clean(dest); cleaned == "." || cleaned == ".." {
		return fmt.Errorf("relocate.destination %q must name a subdirectory", dest)
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
