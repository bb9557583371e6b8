package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fnpool/internal/catalog"
)

var (
	searchFormat string
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search functions by name or comment",
	Long: `Search the catalog index for localizations whose function name or
comment contains the term (case-insensitive substring match).

Examples:
  fnpool search sum
  fnpool search "somme" --format json`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(searchCmd)
}

// SearchResponseCLI carries one catalog search result.
type SearchResponseCLI struct {
	Term    string          `json:"term"`
	Total   int             `json:"total"`
	Entries []catalog.Entry `json:"entries"`
}

func runSearch(cmd *cobra.Command, args []string) {
	logger := newLogger(searchFormat)
	root := mustGetPoolRoot()
	mustGetPool(root, logger)

	cat := mustGetCatalog()
	entries, err := cat.Search(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching catalog: %v\n", err)
		os.Exit(1)
	}

	resp := &SearchResponseCLI{Term: args[0], Total: len(entries), Entries: entries}
	output, err := FormatResponse(resp, OutputFormat(searchFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
