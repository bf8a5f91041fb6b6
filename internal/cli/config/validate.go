package config

import (
	"fmt"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxRows <= 0 {
		return fmt.Errorf("max_rows must be positive, got %d", c.MaxRows)
	}
	if strings.TrimSpace(c.ResultsFile) == "" {
		return fmt.Errorf("results_file must not be empty")
	}
	switch c.Theme {
	case ThemeAuto, ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("unknown theme %q (expected %s, %s or %s)", c.Theme, ThemeAuto, ThemeDark, ThemeLight)
	}
	return nil
}
