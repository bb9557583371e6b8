package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"fnpool/internal/pool"
)

// Config represents the pool-level configuration stored at
// <pool-root>/config.json.
type Config struct {
	Version int          `json:"version" mapstructure:"version"`
	Author  AuthorConfig `json:"author" mapstructure:"author"`

	// Languages is the preferred-language order used when a function
	// is shown or resolved without an explicit language.
	Languages []string      `json:"languages" mapstructure:"languages"`
	Logging   LoggingConfig `json:"logging" mapstructure:"logging"`
}

// AuthorConfig identifies the user writing new functions and mappings.
type AuthorConfig struct {
	Name  string `json:"name" mapstructure:"name"`
	Email string `json:"email" mapstructure:"email"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// SupportedConfigVersions lists the config schema versions this build
// can read.
var SupportedConfigVersions = []int{1}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:   1,
		Author:    AuthorConfig{},
		Languages: []string{"eng"},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// EnvOverride records one environment variable that modified the
// loaded configuration.
type EnvOverride struct {
	EnvVar string
	Path   string
	Value  interface{}
}

// LoadResult carries the loaded config plus provenance details.
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// LoadConfig loads configuration from <poolRoot>/config.json with
// FNPOOL_* environment overrides applied.
func LoadConfig(poolRoot string) (*Config, error) {
	result, err := LoadConfigWithDetails(poolRoot)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration and reports where it came
// from. FNPOOL_CONFIG_PATH points at an explicit file; otherwise the
// standard location under poolRoot is probed, and missing files fall
// back to defaults.
func LoadConfigWithDetails(poolRoot string) (*LoadResult, error) {
	result := &LoadResult{}

	if envPath := os.Getenv("FNPOOL_CONFIG_PATH"); envPath != "" {
		cfg, err := loadConfigFromPath(envPath)
		if err != nil {
			return nil, err
		}
		result.Config = cfg
		result.ConfigPath = envPath
	} else {
		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(poolRoot)

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
			// No config file: run with defaults.
			result.Config = DefaultConfig()
			result.UsedDefaults = true
		} else {
			cfg := DefaultConfig()
			if err := v.Unmarshal(cfg); err != nil {
				return nil, err
			}
			result.Config = cfg
			result.ConfigPath = v.ConfigFileUsed()
		}
	}

	result.EnvOverrides = applyEnvOverrides(result.Config)
	return result, nil
}

// LoadFileConfig reads <poolRoot>/config.json without applying
// environment overrides, so edits can be written back without baking
// transient FNPOOL_* values into the file. A missing file yields the
// defaults.
func LoadFileConfig(poolRoot string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(poolRoot, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFromPath reads a config file from an explicit location.
func loadConfigFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envVarMappings maps FNPOOL_* environment variables to config paths.
var envVarMappings = map[string]string{
	"FNPOOL_AUTHOR_NAME":  "author.name",
	"FNPOOL_AUTHOR_EMAIL": "author.email",
	"FNPOOL_LANGUAGES":    "languages",
	"FNPOOL_LOG_FORMAT":   "logging.format",
	"FNPOOL_LOG_LEVEL":    "logging.level",
}

// GetSupportedEnvVars returns the environment variables that can
// override configuration values.
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envVarMappings))
	for envVar := range envVarMappings {
		vars = append(vars, envVar)
	}
	return vars
}

// applyEnvOverrides applies FNPOOL_* environment variables on top of
// the loaded config and returns the overrides that took effect.
func applyEnvOverrides(cfg *Config) []EnvOverride {
	var overrides []EnvOverride
	for envVar, path := range envVarMappings {
		raw, ok := os.LookupEnv(envVar)
		if !ok || raw == "" {
			continue
		}
		var value interface{} = raw
		if path == "languages" {
			value = splitLanguageList(raw)
		}
		if applyOverride(cfg, path, value) {
			overrides = append(overrides, EnvOverride{EnvVar: envVar, Path: path, Value: value})
		}
	}
	return overrides
}

// applyOverride sets a single config value by dotted path. It returns
// false for unknown paths or mismatched value types.
func applyOverride(cfg *Config, path string, value interface{}) bool {
	switch path {
	case "author.name":
		s, ok := value.(string)
		if !ok {
			return false
		}
		cfg.Author.Name = s
	case "author.email":
		s, ok := value.(string)
		if !ok {
			return false
		}
		cfg.Author.Email = s
	case "languages":
		list, ok := value.([]string)
		if !ok {
			return false
		}
		if len(list) == 0 {
			return false
		}
		cfg.Languages = list
	case "logging.format":
		s, ok := value.(string)
		if !ok {
			return false
		}
		cfg.Logging.Format = s
	case "logging.level":
		s, ok := value.(string)
		if !ok {
			return false
		}
		cfg.Logging.Level = s
	default:
		return false
	}
	return true
}

// SetValue sets one configuration value from its command-line string
// form, addressed by dotted path. Version is read-only.
func SetValue(cfg *Config, path, raw string) error {
	var value interface{} = raw
	if path == "languages" {
		list := splitLanguageList(raw)
		if len(list) == 0 {
			return &ConfigError{Field: path, Message: "needs at least one language code"}
		}
		value = list
	}
	if !applyOverride(cfg, path, value) {
		return &ConfigError{Field: path, Message: "unknown or read-only setting"}
	}
	return nil
}

// splitLanguageList parses a comma-separated language list, dropping
// empty segments.
func splitLanguageList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Save writes the configuration to <poolRoot>/config.json
func (c *Config) Save(poolRoot string) error {
	configPath := filepath.Join(poolRoot, "config.json")

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return os.WriteFile(configPath, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	supported := false
	for _, v := range SupportedConfigVersions {
		if c.Version == v {
			supported = true
			break
		}
	}
	if !supported {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}

	for _, lang := range c.Languages {
		if err := pool.ValidateLanguage(lang); err != nil {
			return &ConfigError{Field: "languages", Message: err.Error()}
		}
	}

	switch c.Logging.Format {
	case "", "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
