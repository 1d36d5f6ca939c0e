// Package config loads procio defaults from PROCIO_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/dmora/procio"
	"github.com/dmora/procio/logging"
	"github.com/dmora/procio/shell"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Prefix is the environment variable prefix.
const Prefix = "PROCIO"

// Config holds all procio configuration. Variables are named after the
// fields with words split by underscores, e.g. PROCIO_MAX_LINE_SIZE.
type Config struct {
	// Stream defaults.
	BufferSize  int    `split_words:"true" default:"2048"`
	MaxLineSize int    `split_words:"true" default:"0"`
	Encoding    string `default:"utf-8"`

	// Shell selects the shell for command execution. Empty means the
	// platform default.
	Shell string

	// Logging.
	LogLevel string `split_words:"true" default:"info"`
	LogDev   bool   `split_words:"true" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		BufferSize:  procio.DefaultBufferSize,
		MaxLineSize: procio.DefaultMaxLineSize,
		Encoding:    "utf-8",
		LogLevel:    "info",
	}
}

// Validate checks that every named value is known.
func (c *Config) Validate() error {
	if _, err := ParseEncoding(c.Encoding); err != nil {
		return err
	}
	if _, err := c.ShellVariant(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.BufferSize < 0 || c.MaxLineSize < 0 {
		return fmt.Errorf("config: negative size (buffer %d, max line %d)", c.BufferSize, c.MaxLineSize)
	}
	return nil
}

// ShellVariant returns the configured shell, or shell.Platform when unset.
func (c *Config) ShellVariant() (shell.Variant, error) {
	if c.Shell == "" {
		return shell.Platform(), nil
	}
	return shell.ParseVariant(c.Shell)
}

// Logger builds the configured logger.
func (c *Config) Logger() (*zap.Logger, error) {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Development = c.LogDev
	return logging.New(cfg)
}

// Options converts the process settings into procio options. A nil logger
// leaves procio's no-op default in place.
func (c *Config) Options(logger *zap.Logger) []procio.Option {
	opts := []procio.Option{
		procio.WithBufferSize(c.BufferSize),
		procio.WithMaxLineSize(c.MaxLineSize),
	}
	if enc, err := ParseEncoding(c.Encoding); err == nil && enc != nil {
		opts = append(opts, procio.WithEncoding(enc))
	}
	if logger != nil {
		opts = append(opts, procio.WithLogger(logger))
	}
	return opts
}

var encodings = map[string]encoding.Encoding{
	"utf-8":        nil,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"ibm850":       charmap.CodePage850,
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
}

// ParseEncoding maps an encoding name to a decoder, case-insensitively.
// "utf-8" (and "") returns nil, which procio treats as UTF-8.
func ParseEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "utf8":
		key = "utf-8"
	case "cp1252":
		key = "windows-1252"
	case "latin1":
		key = "iso-8859-1"
	case "cp850":
		key = "ibm850"
	}
	enc, ok := encodings[key]
	if !ok {
		return nil, fmt.Errorf("config: unknown encoding %q", name)
	}
	return enc, nil
}
