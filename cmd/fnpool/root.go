package main

import (
	"os"

	"github.com/spf13/cobra"

	"fnpool/internal/version"
)

var (
	// poolFlag is the CLI --pool flag value
	poolFlag string
)

var rootCmd = &cobra.Command{
	Use:   "fnpool",
	Short: "fnpool - a content-addressed pool of functions",
	Long: `fnpool stores single-function source files under the hash of their
canonical, naming-independent form. One function can carry any number of
localized surface forms (original names, docstring, comment) per language,
and functions reference each other by content hash alone, so equivalent
logic added under different names or languages shares one stored object.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("fnpool version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&poolFlag, "pool", "",
		"Pool root directory (default: $FNPOOL_ROOT, then the current directory)")
}

// resolvePoolRoot determines the pool root directory.
// Precedence: --pool flag > FNPOOL_ROOT env var > current directory
func resolvePoolRoot() (string, error) {
	if poolFlag != "" {
		return poolFlag, nil
	}
	if env := os.Getenv("FNPOOL_ROOT"); env != "" {
		return env, nil
	}
	return os.Getwd()
}
