// Package config loads the linter configuration from defaults, an optional
// global file, an optional local file and CONSIGLIERE_* environment
// variables, in increasing order of priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment variable read as configuration.
	EnvPrefix = "CONSIGLIERE_"
	// LocalFile is the configuration file looked up in the working directory.
	LocalFile = ".consigliere.json"
	appName   = "pipeline-consigliere"
)

// Configuration of a lint run.
type Configuration struct {
	// File is the pipeline file to lint.
	File        string `koanf:"file" validate:"required"`
	Level       string `koanf:"level" validate:"oneof=info warn error"`
	Interactive bool   `koanf:"interactive"`
	// Out receives the fixed pipeline; "-" is stdout, empty overwrites File.
	Out           string        `koanf:"out"`
	DisabledRules []string      `koanf:"disabled_rules" validate:"dive,required"`
	EnabledRules  []string      `koanf:"enabled_rules" validate:"dive,required"`
	TimeoutValue  string        `koanf:"timeout_value" validate:"required"`
	ExpireInValue string        `koanf:"expire_in_value" validate:"required"`
	FetchTimeout  time.Duration `koanf:"fetch_timeout" validate:"min=0"`
	CacheSize     int           `koanf:"cache_size" validate:"min=1,max=4096"`
}

// Target returns where fixed output is written.
func (c *Configuration) Target() string {
	if c.Out == "" {
		return c.File
	}
	return c.Out
}

// Values returns the configuration keyed like KnownKeys.
func (c *Configuration) Values() map[string]interface{} {
	return map[string]interface{}{
		"file":            c.File,
		"level":           c.Level,
		"interactive":     c.Interactive,
		"out":             c.Out,
		"disabled_rules":  c.DisabledRules,
		"enabled_rules":   c.EnabledRules,
		"timeout_value":   c.TimeoutValue,
		"expire_in_value": c.ExpireInValue,
		"fetch_timeout":   c.FetchTimeout,
		"cache_size":      c.CacheSize,
	}
}

// Load loads configuration from global, local, and environment sources.
// Priority: Environment variables > Local config > Global config > Defaults
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to apply default %s: %w", key, err)
		}
	}

	if globalPath := GlobalPath(); globalPath != "" {
		if err := loadFile(k, globalPath); err != nil {
			return nil, fmt.Errorf("failed to load global config: %w", err)
		}
	}

	if localConfigPath != "" {
		if err := loadFile(k, localConfigPath); err != nil {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// GlobalPath returns the per-user configuration file, or "" when the user
// configuration directory is unknown.
func GlobalPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.json")
}

// loadFile merges a JSON file into k. A missing file is skipped.
func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := ValidateJSONSyntax(path); err != nil {
		return err
	}
	return k.Load(file.Provider(path), json.Parser())
}

// envValue maps an environment variable to its config key. List keys are
// split on commas; koanf keeps env values as plain strings otherwise.
func envValue(name, value string) (string, interface{}) {
	key := envTransform(name)
	if schema, ok := KnownKeys[key]; ok && schema.Type == TypeList {
		return key, splitList(value)
	}
	return key, value
}

// splitList splits a comma separated value, dropping blank entries.
func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// envTransform converts environment variable names to config keys
// Example: CONSIGLIERE_FETCH_TIMEOUT -> fetch_timeout
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}
