package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"fnpool/internal/catalog"
	"fnpool/internal/config"
	"fnpool/internal/logging"
	"fnpool/internal/pool"
)

var (
	poolOnce    sync.Once
	sharedPool  *pool.Pool
	sharedCfg   *config.Config
	sharedIndex *catalog.Catalog
	poolErr     error
)

// getPool returns the shared pool engine and its configuration, lazily
// initialized on first use: config load, catalog index, store, engine.
func getPool(root string, logger *slog.Logger) (*pool.Pool, *config.Config, error) {
	poolOnce.Do(func() {
		cfg, err := config.LoadConfig(root)
		if err != nil {
			logger.Warn("failed to load config, using defaults", "error", err)
			cfg = config.DefaultConfig()
		}
		if err := cfg.Validate(); err != nil {
			poolErr = err
			return
		}
		sharedCfg = cfg

		// The index only accelerates list and search; a pool whose
		// catalog cannot be opened still serves every other command.
		db, err := catalog.Open(root, logger)
		if err != nil {
			logger.Warn("catalog index unavailable", "error", err)
		} else {
			sharedIndex = catalog.New(db, logger)
		}

		store := pool.NewStore(root, logger)
		var recorder pool.Recorder
		if sharedIndex != nil {
			recorder = sharedIndex
		}
		sharedPool = pool.New(store, recorder, logger)
	})

	if poolErr != nil {
		return nil, nil, poolErr
	}
	return sharedPool, sharedCfg, nil
}

// mustGetPool returns the shared pool engine or exits on error.
func mustGetPool(root string, logger *slog.Logger) (*pool.Pool, *config.Config) {
	p, cfg, err := getPool(root, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening pool: %v\n", err)
		os.Exit(1)
	}
	return p, cfg
}

// getCatalog returns the shared catalog index, or nil when none could be
// opened. Valid only after getPool has run.
func getCatalog() *catalog.Catalog {
	return sharedIndex
}

// mustGetPoolRoot returns the pool root directory or exits on error.
func mustGetPoolRoot() string {
	root, err := resolvePoolRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return root
}

// langPrefs returns the language preference order for one command: the
// explicit flag value alone when given, otherwise the configured list.
func langPrefs(cfg *config.Config, flag string) []string {
	if flag != "" {
		return []string{flag}
	}
	if len(cfg.Languages) > 0 {
		return cfg.Languages
	}
	return []string{"eng"}
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}

// newLogger creates a logger matching the output format, so json output
// comes with json logs on stderr.
func newLogger(format string) *slog.Logger {
	logFormat := logging.TextFormat
	if format == "json" {
		logFormat = logging.JSONFormat
	}
	level := os.Getenv("FNPOOL_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	return logging.New(logging.Config{Format: logFormat, Level: level})
}
