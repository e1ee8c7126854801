package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// validOutputFormats lists the accepted values of the output setting.
var validOutputFormats = []string{"auto", "text", "markdown", "json", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Document == "" {
		return fmt.Errorf("document is required")
	}

	valid := false
	for _, f := range validOutputFormats {
		if c.OutputFormat == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid output format %q (expected one of %s)", c.OutputFormat, strings.Join(validOutputFormats, ", "))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel converts a log_level setting into a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}
