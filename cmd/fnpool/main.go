package main

import (
	"os"

	"github.com/joho/godotenv"

	"fnpool/internal/logging"
)

func main() {
	// A .env next to the invocation is optional; FNPOOL_* variables it
	// sets feed the config layer like any other environment variable.
	_ = godotenv.Load()

	logger := logging.New(logging.Config{
		Format: logging.TextFormat,
		Level:  "info",
	})

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
