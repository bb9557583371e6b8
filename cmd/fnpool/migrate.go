package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fnpool/internal/legacy"
)

var (
	migrateKeepLegacy bool
	migrateDryRun     bool
	migrateFormat     string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [hash]",
	Short: "Migrate legacy records to the current schema",
	Long: `Convert functions stored under the legacy single-file layout to the
current object/mapping tree. The identity hash and every localization
are preserved exactly; the legacy file is deleted after a validated
migration unless --keep-legacy is set.

With a hash, exactly that function is migrated. Without one, the whole
legacy tree is scanned and migrated; per-function failures are reported
and do not stop the run.

Examples:
  fnpool migrate 4ac9...beef
  fnpool migrate --dry-run
  fnpool migrate --keep-legacy`,
	Args: cobra.MaximumNArgs(1),
	Run:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateKeepLegacy, "keep-legacy", false, "Keep the legacy file after a successful migration")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Report what would be migrated without writing")
	migrateCmd.Flags().StringVar(&migrateFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	logger := newLogger(migrateFormat)
	root := mustGetPoolRoot()
	p, cfg := mustGetPool(root, logger)

	migrator := legacy.NewMigrator(p.Store(), cfg.Author.Name, cfg.Author.Email, logger)
	opts := legacy.Options{KeepLegacy: migrateKeepLegacy, DryRun: migrateDryRun}

	if len(args) == 1 {
		hash := args[0]
		if err := migrator.Migrate(hash, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error migrating %s: %v\n", hash, err)
			os.Exit(1)
		}
		batch := &legacy.BatchResult{
			Total:   1,
			DryRun:  migrateDryRun,
			Results: []legacy.Result{{Hash: hash, Migrated: !migrateDryRun}},
		}
		if !migrateDryRun {
			batch.Migrated = 1
		}
		printMigrateResult(batch)
		return
	}

	batch, err := migrator.MigrateAll(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning legacy records: %v\n", err)
		os.Exit(1)
	}
	printMigrateResult(batch)
	if batch.Failed > 0 {
		os.Exit(1)
	}
}

func printMigrateResult(batch *legacy.BatchResult) {
	output, err := FormatResponse(batch, OutputFormat(migrateFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
