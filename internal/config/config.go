// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package config holds the extractor's configuration.
//
// A configuration starts with its default values, then reads an
// optional TOML file and finally applies the environment variables
// prefixed with MICRODATA_.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/komkom/toml"

	"codeberg.org/readeck/microdata/internal/output"
)

// Version is the program's version. It's set at build time.
var Version = "dev"

// ErrInvalid is returned by [Config.Validate] for every invalid value.
var ErrInvalid = errors.New("invalid configuration")

const envPrefix = "MICRODATA_"

// Config is the configuration root.
type Config struct {
	Log     LogConfig     `json:"log" envPrefix:"LOG_"`
	Extract ExtractConfig `json:"extract" envPrefix:"EXTRACT_"`
	HTTP    HTTPConfig    `json:"http" envPrefix:"HTTP_"`
	Server  ServerConfig  `json:"server" envPrefix:"SERVER_"`
}

// LogConfig is the logger configuration.
type LogConfig struct {
	Level slog.Level `json:"level" env:"LEVEL"`
	Dev   bool       `json:"dev" env:"DEV"`
}

// ExtractConfig contains the extraction defaults.
type ExtractConfig struct {
	BaseURL    string `json:"base_url" env:"BASE_URL"`
	Absolutize string `json:"absolutize" env:"ABSOLUTIZE"`
	Format     string `json:"format" env:"FORMAT"`
	Indent     int    `json:"indent" env:"INDENT"`
	Charset    string `json:"charset" env:"CHARSET"`
	Jobs       int    `json:"jobs" env:"JOBS"`
}

// HTTPConfig is the outgoing HTTP client configuration.
type HTTPConfig struct {
	UserAgent string   `json:"user_agent" env:"USER_AGENT"`
	Timeout   Duration `json:"timeout" env:"TIMEOUT"`
	MaxBody   int64    `json:"max_body" env:"MAX_BODY"`
}

// ServerConfig is the HTTP API configuration.
type ServerConfig struct {
	Host    string `json:"host" env:"HOST"`
	Port    int    `json:"port" env:"PORT"`
	Metrics bool   `json:"metrics" env:"METRICS"`
}

// Duration is a [time.Duration] that reads "20s" like values
// from TOML and the environment.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

var absolutizers = []string{"concat", "resolve"}

// New returns a configuration with the default values.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level: slog.LevelInfo,
		},
		Extract: ExtractConfig{
			Absolutize: "concat",
			Format:     "json",
			Indent:     2,
			Jobs:       4,
		},
		HTTP: HTTPConfig{
			Timeout: Duration{20 * time.Second},
			MaxBody: 10 << 20,
		},
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    8000,
			Metrics: true,
		},
	}
}

// Load returns a new configuration. When filename is not empty,
// the file is read on top of the default values.
// The environment variables are always applied last.
func Load(filename string) (*Config, error) {
	cf := New()

	if filename != "" {
		fd, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer fd.Close() //nolint:errcheck

		if err := cf.Read(fd); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}

	if err := cf.LoadEnv(nil); err != nil {
		return nil, err
	}

	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

// Read loads a TOML document into the configuration.
func (cf *Config) Read(r io.Reader) error {
	dec := json.NewDecoder(toml.New(r))
	dec.DisallowUnknownFields()
	return dec.Decode(cf)
}

// LoadEnv applies the environment variables. When environ is nil,
// the process' environment is used.
func (cf *Config) LoadEnv(environ map[string]string) error {
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	return env.ParseWithOptions(cf, opts)
}

// Validate checks the configuration values. The output format
// is replaced by its canonical name.
func (cf *Config) Validate() error {
	errs := []error{}

	if !slices.Contains(absolutizers, cf.Extract.Absolutize) {
		errs = append(errs, fmt.Errorf("%w: extract.absolutize must be one of %s",
			ErrInvalid, strings.Join(absolutizers, ", ")))
	}
	if f, err := output.ParseFormat(cf.Extract.Format); err != nil {
		errs = append(errs, fmt.Errorf("%w: extract.format must be one of json, yaml", ErrInvalid))
	} else {
		cf.Extract.Format = f.String()
	}
	if cf.Extract.Indent < 0 {
		errs = append(errs, fmt.Errorf("%w: extract.indent cannot be negative", ErrInvalid))
	}
	if cf.Extract.Jobs < 1 {
		errs = append(errs, fmt.Errorf("%w: extract.jobs must be at least 1", ErrInvalid))
	}
	if cf.HTTP.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("%w: http.timeout must be positive", ErrInvalid))
	}
	if cf.Server.Port < 1 || cf.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: server.port out of range", ErrInvalid))
	}

	return errors.Join(errs...)
}

// Addr returns the server's listening address.
func (cf *Config) Addr() string {
	return fmt.Sprintf("%s:%d", cf.Server.Host, cf.Server.Port)
}
