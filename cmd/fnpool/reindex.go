package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	reindexFormat string
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the catalog index from the object tree",
	Long: `Drop the catalog index and reconstruct it from the stored objects and
mappings. The tree is the source of truth; reindexing recovers from a
lost database or from functions added while no catalog was attached.`,
	Args: cobra.NoArgs,
	Run:  runReindex,
}

func init() {
	reindexCmd.Flags().StringVar(&reindexFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(reindexCmd)
}

// ReindexResponseCLI reports one rebuilt index.
type ReindexResponseCLI struct {
	Mappings int `json:"mappings"`
}

func runReindex(cmd *cobra.Command, args []string) {
	logger := newLogger(reindexFormat)
	root := mustGetPoolRoot()
	p, _ := mustGetPool(root, logger)

	cat := mustGetCatalog()
	count, err := cat.Rebuild(p.Store())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rebuilding catalog: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(&ReindexResponseCLI{Mappings: count}, OutputFormat(reindexFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
