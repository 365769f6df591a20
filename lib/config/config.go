// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable [Load] reads the config path from.
const EnvironmentVariable = "SIMLINK_CONFIG"

// Config is the connection profile for simlink's remotes.
type Config struct {
	// SIMH configures the text console remote.
	SIMH SIMHConfig `yaml:"simh" json:"simh"`

	// ZXNext configures the binary DZRP remote.
	ZXNext ZXNextConfig `yaml:"zxnext" json:"zxnext"`

	// Trace configures the wire trace recorder.
	Trace TraceConfig `yaml:"trace" json:"trace"`

	// Log configures the structured logger.
	Log LogConfig `yaml:"log" json:"log"`
}

// SIMHConfig configures the SIMH remote console connection.
type SIMHConfig struct {
	// Transport is "tcp" or "telnet". SIMH's remote console speaks
	// telnet option negotiation; "tcp" is for simulators started with
	// the negotiation disabled and for test doubles.
	// Default: telnet
	Transport string `yaml:"transport" json:"transport"`

	// Address is the host:port of the remote console.
	// Default: localhost:1024
	Address string `yaml:"address" json:"address"`

	// SocketTimeout bounds the wait for each command's response.
	// Default: 5s
	SocketTimeout string `yaml:"socket_timeout" json:"socket_timeout"`

	// WelcomeTimeout bounds the wait for the connection banner.
	// Default: 2s
	WelcomeTimeout string `yaml:"welcome_timeout" json:"welcome_timeout"`

	// StartupCommands run in order once the banner arrives, e.g.
	// "attach n8vem0 SBC_simh.rom".
	StartupCommands []string `yaml:"startup_commands" json:"startup_commands"`
}

// ZXNextConfig configures the DZRP connection to a ZX Next.
type ZXNextConfig struct {
	// Transport is "tcp" or "serial".
	// Default: serial
	Transport string `yaml:"transport" json:"transport"`

	// Address is the host:port used by the tcp transport.
	Address string `yaml:"address" json:"address"`

	// Device is the serial device used by the serial transport.
	// Default: /dev/ttyUSB0
	Device string `yaml:"device" json:"device"`

	// BaudRate is the serial line speed.
	// Default: 921600
	BaudRate int `yaml:"baud_rate" json:"baud_rate"`

	// ResponseTimeout bounds the wait for each DZRP response.
	// Default: 3s
	ResponseTimeout string `yaml:"response_timeout" json:"response_timeout"`
}

// TraceConfig configures wire trace recording.
type TraceConfig struct {
	// Path is the trace file. Empty disables tracing.
	Path string `yaml:"path" json:"path"`

	// Compression is "none", "lz4", or "zstd".
	// Default: zstd
	Compression string `yaml:"compression" json:"compression"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a slog level name: debug, info, warn, error.
	// Default: info
	Level string `yaml:"level" json:"level"`
}

// Default returns the default configuration. Values loaded from a file
// are merged over it.
func Default() *Config {
	return &Config{
		SIMH: SIMHConfig{
			Transport:      "telnet",
			Address:        "localhost:1024",
			SocketTimeout:  "5s",
			WelcomeTimeout: "2s",
		},
		ZXNext: ZXNextConfig{
			Transport:       "serial",
			Device:          "/dev/ttyUSB0",
			BaudRate:        921600,
			ResponseTimeout: "3s",
		},
		Trace: TraceConfig{
			Compression: "zstd",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by SIMLINK_CONFIG.
// There is no fallback: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your simlink config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path. Files ending in .json or
// .jsonc are parsed as JSON with comments and trailing commas allowed;
// anything else is parsed as YAML.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths,
// addresses, and startup commands.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.SIMH.Address = expandVars(c.SIMH.Address, vars)
	for i, command := range c.SIMH.StartupCommands {
		c.SIMH.StartupCommands[i] = expandVars(command, vars)
	}
	c.ZXNext.Address = expandVars(c.ZXNext.Address, vars)
	c.ZXNext.Device = expandVars(c.ZXNext.Device, vars)
	c.Trace.Path = expandVars(c.Trace.Path, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]string{"tcp", "telnet"}, c.SIMH.Transport) {
		errs = append(errs, fmt.Errorf("simh.transport must be one of: tcp, telnet (got %q)", c.SIMH.Transport))
	}
	if c.SIMH.Address == "" {
		errs = append(errs, fmt.Errorf("simh.address is required"))
	}
	errs = appendDurationError(errs, "simh.socket_timeout", c.SIMH.SocketTimeout)
	errs = appendDurationError(errs, "simh.welcome_timeout", c.SIMH.WelcomeTimeout)

	switch c.ZXNext.Transport {
	case "tcp":
		if c.ZXNext.Address == "" {
			errs = append(errs, fmt.Errorf("zxnext.address is required for the tcp transport"))
		}
	case "serial":
		if c.ZXNext.Device == "" {
			errs = append(errs, fmt.Errorf("zxnext.device is required for the serial transport"))
		}
		if c.ZXNext.BaudRate <= 0 {
			errs = append(errs, fmt.Errorf("zxnext.baud_rate must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("zxnext.transport must be one of: tcp, serial (got %q)", c.ZXNext.Transport))
	}
	errs = appendDurationError(errs, "zxnext.response_timeout", c.ZXNext.ResponseTimeout)

	if !slices.Contains([]string{"none", "lz4", "zstd"}, c.Trace.Compression) {
		errs = append(errs, fmt.Errorf("trace.compression must be one of: none, lz4, zstd (got %q)", c.Trace.Compression))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func appendDurationError(errs []error, field, value string) []error {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", field, err))
	}
	if duration < 0 {
		return append(errs, fmt.Errorf("%s must not be negative", field))
	}
	return errs
}

// CommandTimeout returns SocketTimeout as a duration. Zero if unparsable;
// call Validate first.
func (s SIMHConfig) CommandTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.SocketTimeout)
	return duration
}

// BannerTimeout returns WelcomeTimeout as a duration.
func (s SIMHConfig) BannerTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.WelcomeTimeout)
	return duration
}

// Timeout returns ResponseTimeout as a duration.
func (z ZXNextConfig) Timeout() time.Duration {
	duration, _ := time.ParseDuration(z.ResponseTimeout)
	return duration
}

// Endpoint returns the address the configured transport dials: the
// serial device or the TCP address.
func (z ZXNextConfig) Endpoint() string {
	if z.Transport == "serial" {
		return z.Device
	}
	return z.Address
}

// SlogLevel returns the configured log level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
