package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

// Config holds the playground's configuration: the defaults a Sandbox is
// constructed with. Fields mirror spec.md §6's enumerated sandbox
// configuration.
type Config struct {
	MaxTotalSize     int               `json:"maxTotalSize,omitempty"`
	MaxFileSize      int               `json:"maxFileSize,omitempty"`
	MaxNodeCount     int               `json:"maxNodeCount,omitempty"`
	WorkingDirectory string            `json:"workingDirectory,omitempty"`
	Environment      map[string]string `json:"environment,omitempty"`
}

// LoadConfigInput holds the inputs for LoadConfig: a config file path
// (JSON or JSONC, optional) and a CLI flag set that takes precedence
// over it.
type LoadConfigInput struct {
	ConfigPath string
	CLIFlags   *pflag.FlagSet
}

// LoadConfig reads the config file (if present), then overlays any CLI
// flags the caller explicitly set, in that precedence order.
func LoadConfig(in LoadConfigInput) (Config, error) {
	cfg := Config{}

	if in.ConfigPath != "" {
		fileCfg, err := parseConfigFile(in.ConfigPath)
		if err != nil {
			return Config{}, err
		}

		cfg = fileCfg
	}

	if in.CLIFlags == nil {
		return cfg, nil
	}

	overlayFlags(&cfg, in.CLIFlags)

	return cfg, nil
}

// parseConfigFile loads a JSON/JSONC config file. Both .json and .jsonc
// extensions support comments and trailing commas via hujson.
func parseConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	var cfg Config

	decoder := json.NewDecoder(bytes.NewReader(standardized))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// overlayFlags applies any flag the caller explicitly changed on top of
// cfg, so an unset flag never clobbers a value from the config file.
func overlayFlags(cfg *Config, flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "max-total-size":
			if v, err := flags.GetInt("max-total-size"); err == nil {
				cfg.MaxTotalSize = v
			}
		case "max-file-size":
			if v, err := flags.GetInt("max-file-size"); err == nil {
				cfg.MaxFileSize = v
			}
		case "max-node-count":
			if v, err := flags.GetInt("max-node-count"); err == nil {
				cfg.MaxNodeCount = v
			}
		case "workdir":
			if v, err := flags.GetString("workdir"); err == nil {
				cfg.WorkingDirectory = v
			}
		}
	})
}

// defaultConfigPath looks for .agent-sandbox.jsonc, then .agent-sandbox.json,
// in the current working directory.
func defaultConfigPath() string {
	for _, name := range []string{".agent-sandbox.jsonc", ".agent-sandbox.json"} {
		if _, err := os.Stat(name); err == nil {
			abs, err := filepath.Abs(name)
			if err == nil {
				return abs
			}

			return name
		}
	}

	return ""
}
