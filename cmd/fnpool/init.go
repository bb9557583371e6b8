package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fnpool/internal/catalog"
	"fnpool/internal/config"
	"fnpool/internal/errors"
	"fnpool/internal/logging"
)

var (
	initForce       bool
	initAuthorName  string
	initAuthorEmail string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a pool",
	Long: `Create the pool directory layout, default configuration, and catalog
index at the pool root (--pool, FNPOOL_ROOT, or the current directory).`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Rewrite config.json even if the pool is already initialized")
	initCmd.Flags().StringVar(&initAuthorName, "author-name", "", "Author name recorded on new functions")
	initCmd.Flags().StringVar(&initAuthorEmail, "author-email", "", "Author email recorded on new functions")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := logging.New(logging.Config{
		Format: logging.TextFormat,
		Level:  "info",
	})

	root, err := resolvePoolRoot()
	if err != nil {
		return err
	}

	configPath := filepath.Join(root, "config.json")
	if _, statErr := os.Stat(configPath); statErr == nil && !initForce {
		// Idempotent behavior: already initialized is success (CI-friendly)
		fmt.Println("Pool already initialized.")
		fmt.Printf("Configuration at: %s\n", configPath)
		fmt.Println("\nRun 'fnpool init --force' to rewrite the configuration.")
		return nil
	}

	// Only config.json is ever rewritten. The root may already hold
	// objects; a force init must not touch them.
	if err := os.MkdirAll(filepath.Join(root, "sha256"), 0755); err != nil {
		return errors.New(errors.InternalError, "failed to create pool directories", err)
	}

	cfg := config.DefaultConfig()
	cfg.Author.Name = initAuthorName
	cfg.Author.Email = initAuthorEmail
	if err := cfg.Save(root); err != nil {
		return errors.New(errors.InternalError, "failed to write config file", err)
	}

	db, err := catalog.Open(root, logger)
	if err != nil {
		logger.Warn("catalog index could not be created", "error", err)
	} else {
		db.Close()
	}

	logger.Info("pool initialized", "root", root)

	fmt.Println("Pool initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set your author identity in config.json (or FNPOOL_AUTHOR_NAME)")
	fmt.Println("  2. Run 'fnpool add <file>' to store your first function")

	return nil
}
