package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeNinja(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDatabase()
	c.normalizeExport()
	c.normalizeRelocate()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeNinja() error {
	c.Ninja.Binary = strings.TrimSpace(c.Ninja.Binary)
	if c.Ninja.Binary == "" {
		c.Ninja.Binary = defaultNinjaBinary
	}
	if strings.TrimSpace(c.Ninja.WorkingDir) == "" {
		c.Ninja.WorkingDir = defaultWorkingDir
	}
	var err error
	if c.Ninja.WorkingDir, err = expandPath(strings.TrimSpace(c.Ninja.WorkingDir)); err != nil {
		return fmt.Errorf("ninja.working_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDatabase() {
	c.Database.Server = strings.TrimSpace(c.Database.Server)
	c.Database.Name = strings.TrimSpace(c.Database.Name)
	c.Database.Username = strings.TrimSpace(c.Database.Username)
	if c.Database.Username == "" {
		c.Database.Username = firstEnv(usernameEnvVars)
	}
	// Passwords are used verbatim; only fall back when unset.
	if c.Database.Password == "" {
		c.Database.Password = firstEnv(passwordEnvVars)
	}
}

func (c *Config) normalizeExport() {
	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	c.Export.Printer = strings.TrimSpace(c.Export.Printer)
}

func (c *Config) normalizeRelocate() {
	c.Relocate.Destination = strings.TrimSpace(c.Relocate.Destination)
	if c.Relocate.Destination == "" {
		c.Relocate.Destination = defaultRelocateDestination
	}
	c.Relocate.Extension = strings.TrimSpace(c.Relocate.Extension)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func firstEnv(keys []string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			return value
		}
	}
	return ""
}
