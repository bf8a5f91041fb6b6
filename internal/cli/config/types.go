// Package config loads loql settings from defaults, a YAML file, LOQL_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"github.com/dannyboland/loql/internal/export"
	"github.com/dannyboland/loql/internal/objstore"
	"github.com/dannyboland/loql/internal/query"
	"github.com/dannyboland/loql/internal/session"
)

// Config holds all CLI configuration options.
type Config struct {
	Clipboard   bool              `koanf:"clipboard" yaml:"clipboard"`
	MaxRows     int               `koanf:"max_rows" yaml:"max_rows"`
	RowLines    bool              `koanf:"row_lines" yaml:"row_lines"`
	Log         string            `koanf:"log" yaml:"log"`
	Isolated    bool              `koanf:"isolated" yaml:"isolated"`
	ResultsFile string            `koanf:"results_file" yaml:"results_file"`
	Extensions  []string          `koanf:"extensions" yaml:"extensions,omitempty"`
	Settings    map[string]string `koanf:"settings" yaml:"settings,omitempty"`
	Theme       string            `koanf:"theme" yaml:"theme"`
	S3          S3Config          `koanf:"s3" yaml:"s3"`
}

// S3Config overrides the object storage client defaults.
type S3Config struct {
	Region    string `koanf:"region" yaml:"region,omitempty"`
	Endpoint  string `koanf:"endpoint" yaml:"endpoint,omitempty"`
	PathStyle bool   `koanf:"path_style" yaml:"path_style,omitempty"`
}

// Themes accepted by the theme key.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Default configuration values.
const (
	DefaultMaxRows     = query.DefaultRowLimit
	DefaultResultsFile = export.DefaultPath
	DefaultTheme       = ThemeAuto
	EnvPrefix          = "LOQL_"
)

// SessionOptions converts the configuration into session options.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		Clipboard:   c.Clipboard,
		RowLimit:    c.MaxRows,
		ResultsPath: c.ResultsFile,
		Settings:    c.Settings,
		Extensions:  c.Extensions,
		ObjectStore: objstore.Config{
			Region:    c.S3.Region,
			Endpoint:  c.S3.Endpoint,
			PathStyle: c.S3.PathStyle,
		},
	}
}
