// Package config loads detector settings from defaults, an optional TOML file,
// an optional .env file and the process environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type ServerSection struct {
	Port           string `toml:"port"`
	ReadTimeoutMS  int    `toml:"read_timeout_ms"`
	WriteTimeoutMS int    `toml:"write_timeout_ms"`
	IdleTimeoutMS  int    `toml:"idle_timeout_ms"`
	Debug          bool   `toml:"debug"`
	Metrics        bool   `toml:"metrics"`
}

func (s ServerSection) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (s ServerSection) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

func (s ServerSection) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

type TLSSection struct {
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`
}

// Enabled reports whether both halves of the key pair are configured
func (t TLSSection) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

type AssetSection struct {
	Path  string `toml:"path"`
	Cache bool   `toml:"cache"`
}

type LogSection struct {
	Level               string `toml:"level"`
	Dir                 string `toml:"dir"`
	FileName            string `toml:"file_name"`
	Stdout              bool   `toml:"stdout"`
	MaxEntriesPerSecond int    `toml:"max_entries_per_second"`
}

type Config struct {
	Server ServerSection `toml:"server"`
	TLS    TLSSection    `toml:"tls"`
	Asset  AssetSection  `toml:"asset"`
	Log    LogSection    `toml:"log"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerSection{
			Port:           "8080",
			ReadTimeoutMS:  5000,
			WriteTimeoutMS: 10000,
			IdleTimeoutMS:  120000,
			Debug:          false,
			Metrics:        true,
		},
		Asset: AssetSection{
			Path:  "static/Warning.png",
			Cache: true,
		},
		Log: LogSection{
			Level:               "info",
			Dir:                 "logs",
			FileName:            "detections.jsonl",
			Stdout:              false,
			MaxEntriesPerSecond: 100,
		},
	}
}

// Load builds the effective configuration.
// A missing TOML file or .env file is not an error.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Port = v
	}
	if v, ok := lookup("DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEBUG: %w", err)
		}
		c.Server.Debug = b
	}
	if v, ok := lookup("METRICS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("METRICS: %w", err)
		}
		c.Server.Metrics = b
	}

	// TLS only switches on when both files are given
	cert, _ := lookup("TLS_CERT")
	key, _ := lookup("TLS_KEY")
	if cert != "" && key != "" {
		c.TLS.CertFile = cert
		c.TLS.KeyFile = key
	}

	if v, ok := lookup("ASSET_PATH"); ok && v != "" {
		c.Asset.Path = v
	}
	if v, ok := lookup("ASSET_CACHE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ASSET_CACHE: %w", err)
		}
		c.Asset.Cache = b
	}
	if v, ok := lookup("LOG_DIR"); ok && v != "" {
		c.Log.Dir = v
	}
	if v, ok := lookup("LOG_STDOUT"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_STDOUT: %w", err)
		}
		c.Log.Stdout = b
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}

	// Debug implies verbose console output unless a level was set explicitly
	if _, ok := lookup("LOG_LEVEL"); !ok && c.Server.Debug {
		c.Log.Level = "debug"
	}

	return nil
}

// Addr returns the listen address
func (c Config) Addr() string {
	if strings.Contains(c.Server.Port, ":") {
		return c.Server.Port
	}
	return ":" + c.Server.Port
}
