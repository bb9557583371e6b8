package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	os.Unsetenv("FNPOOL_CONFIG_PATH")
	for envVar := range envVarMappings {
		os.Unsetenv(envVar)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if len(cfg.Languages) != 1 || cfg.Languages[0] != "eng" {
		t.Errorf("Languages = %v, want [eng]", cfg.Languages)
	}
	if cfg.Logging.Format != "human" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "human")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Author.Name != "" {
		t.Errorf("Author.Name = %q, want empty", cfg.Author.Name)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{"defaults valid", func(cfg *Config) {}, false},
		{"version 0 unsupported", func(cfg *Config) { cfg.Version = 0 }, true},
		{"version 2 unsupported", func(cfg *Config) { cfg.Version = 2 }, true},
		{"bad language code", func(cfg *Config) { cfg.Languages = []string{"EN"} }, true},
		{"short language code", func(cfg *Config) { cfg.Languages = []string{"en"} }, true},
		{"good language list", func(cfg *Config) { cfg.Languages = []string{"fra", "eng"} }, false},
		{"bad logging format", func(cfg *Config) { cfg.Logging.Format = "xml" }, true},
		{"json logging format", func(cfg *Config) { cfg.Logging.Format = "json" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr && err == nil {
				t.Error("Validate() should return error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() returned unexpected error: %v", err)
			}
			if err != nil {
				if _, ok := err.(*ConfigError); !ok {
					t.Errorf("Validate() error type = %T, want *ConfigError", err)
				}
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{
		Field:   "version",
		Message: "unsupported config version",
	}

	got := err.Error()
	want := "config error in field 'version': unsupported config version"

	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	clearConfigEnv(t)
	tmpDir := t.TempDir()

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1 (default)", cfg.Version)
	}
	if len(cfg.Languages) != 1 || cfg.Languages[0] != "eng" {
		t.Errorf("Languages = %v, want [eng] (default)", cfg.Languages)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearConfigEnv(t)
	tmpDir := t.TempDir()

	configContent := `{
		"version": 1,
		"author": {"name": "alice", "email": "alice@example.com"},
		"languages": ["fra", "eng"],
		"logging": {"format": "json", "level": "debug"}
	}`

	configPath := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Author.Name != "alice" {
		t.Errorf("Author.Name = %q, want %q", cfg.Author.Name, "alice")
	}
	if len(cfg.Languages) != 2 || cfg.Languages[0] != "fra" {
		t.Errorf("Languages = %v, want [fra eng]", cfg.Languages)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	clearConfigEnv(t)
	tmpDir := t.TempDir()

	configContent := `{"version": 1, "author": {"name": "bob"}}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Author.Name != "bob" {
		t.Errorf("Author.Name = %q, want %q", cfg.Author.Name, "bob")
	}
	// Fields absent from the file keep their defaults.
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q (default)", cfg.Logging.Level, "info")
	}
}

func TestConfig_Save(t *testing.T) {
	clearConfigEnv(t)
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Author.Name = "carol"
	cfg.Languages = []string{"deu"}

	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, "config.json")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	loaded, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() after save error = %v", err)
	}
	if loaded.Author.Name != "carol" {
		t.Errorf("Loaded Author.Name = %q, want %q", loaded.Author.Name, "carol")
	}
	if len(loaded.Languages) != 1 || loaded.Languages[0] != "deu" {
		t.Errorf("Loaded Languages = %v, want [deu]", loaded.Languages)
	}
}

func TestLoadFileConfig_IgnoresEnv(t *testing.T) {
	clearConfigEnv(t)
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Author.Name = "carol"
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	os.Setenv("FNPOOL_AUTHOR_NAME", "transient")
	defer os.Unsetenv("FNPOOL_AUTHOR_NAME")

	loaded, err := LoadFileConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}
	if loaded.Author.Name != "carol" {
		t.Errorf("Author.Name = %q, want %q (file value, not env)", loaded.Author.Name, "carol")
	}
}

func TestLoadFileConfig_MissingFile(t *testing.T) {
	clearConfigEnv(t)
	tmpDir := t.TempDir()

	cfg, err := LoadFileConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}
	if cfg.Version != 1 || len(cfg.Languages) != 1 {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestSetValue(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		raw     string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "author name",
			path: "author.name",
			raw:  "grace",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Author.Name != "grace" {
					t.Errorf("Author.Name = %q", cfg.Author.Name)
				}
			},
		},
		{
			name: "language list",
			path: "languages",
			raw:  "fra,deu",
			check: func(t *testing.T, cfg *Config) {
				if len(cfg.Languages) != 2 || cfg.Languages[0] != "fra" || cfg.Languages[1] != "deu" {
					t.Errorf("Languages = %v", cfg.Languages)
				}
			},
		},
		{
			name: "logging level",
			path: "logging.level",
			raw:  "debug",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("Logging.Level = %q", cfg.Logging.Level)
				}
			},
		},
		{name: "empty language list", path: "languages", raw: " , ", wantErr: true},
		{name: "unknown path", path: "author.homepage", raw: "x", wantErr: true},
		{name: "version is read-only", path: "version", raw: "2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := SetValue(cfg, tt.path, tt.raw)

			if tt.wantErr {
				if err == nil {
					t.Fatal("SetValue() should return error")
				}
				if _, ok := err.(*ConfigError); !ok {
					t.Errorf("SetValue() error type = %T, want *ConfigError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetValue() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config, overrides []EnvOverride)
	}{
		{
			name: "author name override",
			envVars: map[string]string{
				"FNPOOL_AUTHOR_NAME": "dave",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Author.Name != "dave" {
					t.Errorf("Author.Name = %q, want %q", cfg.Author.Name, "dave")
				}
				if len(overrides) != 1 {
					t.Errorf("len(overrides) = %d, want 1", len(overrides))
				}
			},
		},
		{
			name: "language list override",
			envVars: map[string]string{
				"FNPOOL_LANGUAGES": "fra, deu ,eng",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				want := []string{"fra", "deu", "eng"}
				if len(cfg.Languages) != len(want) {
					t.Fatalf("Languages = %v, want %v", cfg.Languages, want)
				}
				for i := range want {
					if cfg.Languages[i] != want[i] {
						t.Errorf("Languages[%d] = %q, want %q", i, cfg.Languages[i], want[i])
					}
				}
			},
		},
		{
			name: "multiple overrides",
			envVars: map[string]string{
				"FNPOOL_LOG_LEVEL":    "warn",
				"FNPOOL_AUTHOR_EMAIL": "dave@example.com",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Logging.Level != "warn" {
					t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
				}
				if cfg.Author.Email != "dave@example.com" {
					t.Errorf("Author.Email = %q", cfg.Author.Email)
				}
				if len(overrides) != 2 {
					t.Errorf("len(overrides) = %d, want 2", len(overrides))
				}
			},
		},
		{
			name: "empty language list ignored",
			envVars: map[string]string{
				"FNPOOL_LANGUAGES": " , ",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if len(cfg.Languages) != 1 || cfg.Languages[0] != "eng" {
					t.Errorf("Languages = %v, want [eng] (default)", cfg.Languages)
				}
				if len(overrides) != 0 {
					t.Errorf("len(overrides) = %d, want 0", len(overrides))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			cfg := DefaultConfig()
			overrides := applyEnvOverrides(cfg)

			tt.validate(t, cfg, overrides)
		})
	}
}

func TestLoadConfigWithDetails(t *testing.T) {
	clearConfigEnv(t)
	tmpDir := t.TempDir()

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}

	if !result.UsedDefaults {
		t.Error("UsedDefaults should be true when no config file exists")
	}
	if result.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty string", result.ConfigPath)
	}
}

func TestLoadConfigWithDetails_EnvConfigPath(t *testing.T) {
	clearConfigEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.json")
	configContent := `{"version": 1, "author": {"name": "erin"}}`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	os.Setenv("FNPOOL_CONFIG_PATH", configPath)
	defer os.Unsetenv("FNPOOL_CONFIG_PATH")

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}

	if result.ConfigPath != configPath {
		t.Errorf("ConfigPath = %q, want %q", result.ConfigPath, configPath)
	}
	if result.Config.Author.Name != "erin" {
		t.Errorf("Author.Name = %q, want %q", result.Config.Author.Name, "erin")
	}
}

func TestLoadConfigWithDetails_EnvOverridesApplied(t *testing.T) {
	clearConfigEnv(t)
	tmpDir := t.TempDir()

	os.Setenv("FNPOOL_LOG_LEVEL", "error")
	os.Setenv("FNPOOL_AUTHOR_NAME", "frank")
	defer func() {
		os.Unsetenv("FNPOOL_LOG_LEVEL")
		os.Unsetenv("FNPOOL_AUTHOR_NAME")
	}()

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}

	if result.Config.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want %q", result.Config.Logging.Level, "error")
	}
	if result.Config.Author.Name != "frank" {
		t.Errorf("Author.Name = %q, want %q", result.Config.Author.Name, "frank")
	}
	if len(result.EnvOverrides) != 2 {
		t.Errorf("len(EnvOverrides) = %d, want 2", len(result.EnvOverrides))
	}
}

func TestGetSupportedEnvVars(t *testing.T) {
	vars := GetSupportedEnvVars()

	if len(vars) == 0 {
		t.Error("GetSupportedEnvVars() should return non-empty list")
	}

	hasAuthor := false
	for _, v := range vars {
		if v == "FNPOOL_AUTHOR_NAME" {
			hasAuthor = true
		}
	}
	if !hasAuthor {
		t.Error("GetSupportedEnvVars() should include FNPOOL_AUTHOR_NAME")
	}
}

func TestApplyOverride_InvalidPaths(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value interface{}
	}{
		{"unknown path", "unknown", "value"},
		{"author name wrong type", "author.name", 123},
		{"languages wrong type", "languages", "eng"},
		{"logging level wrong type", "logging.level", 123},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			result := applyOverride(cfg, tt.path, tt.value)
			if result {
				t.Errorf("applyOverride() should return false for %q", tt.path)
			}
		})
	}
}

func TestLoadConfigFromPath_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad-config.json")

	if err := os.WriteFile(configPath, []byte("{ invalid json }"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := loadConfigFromPath(configPath)
	if err == nil {
		t.Error("loadConfigFromPath() should return error for invalid JSON")
	}
}

func TestLoadConfigWithDetails_InvalidConfigPath(t *testing.T) {
	clearConfigEnv(t)
	tmpDir := t.TempDir()

	os.Setenv("FNPOOL_CONFIG_PATH", "/nonexistent/config.json")
	defer os.Unsetenv("FNPOOL_CONFIG_PATH")

	_, err := LoadConfigWithDetails(tmpDir)
	if err == nil {
		t.Error("LoadConfigWithDetails() should return error for nonexistent FNPOOL_CONFIG_PATH")
	}
}
