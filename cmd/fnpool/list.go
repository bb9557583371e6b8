package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fnpool/internal/catalog"
)

var (
	listLang   string
	listAuthor string
	listName   string
	listFormat string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued functions",
	Long: `List the pool's functions from the catalog index, newest first. Each
row is one localization variant. Filters combine.

Examples:
  fnpool list
  fnpool list --lang fra
  fnpool list --author alice --name sum`,
	Args: cobra.NoArgs,
	Run:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listLang, "lang", "", "Only mappings in this language")
	listCmd.Flags().StringVar(&listAuthor, "author", "", "Only functions by this author")
	listCmd.Flags().StringVar(&listName, "name", "", "Only localized names containing this substring")
	listCmd.Flags().StringVar(&listFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(listCmd)
}

// ListResponseCLI carries one catalog listing.
type ListResponseCLI struct {
	Total   int             `json:"total"`
	Entries []catalog.Entry `json:"entries"`
}

func runList(cmd *cobra.Command, args []string) {
	logger := newLogger(listFormat)
	root := mustGetPoolRoot()
	mustGetPool(root, logger)

	cat := mustGetCatalog()
	entries, err := cat.List(catalog.Filter{
		Language: listLang,
		Author:   listAuthor,
		Name:     listName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing catalog: %v\n", err)
		os.Exit(1)
	}

	resp := &ListResponseCLI{Total: len(entries), Entries: entries}
	output, err := FormatResponse(resp, OutputFormat(listFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

// mustGetCatalog returns the catalog index or exits when the pool has
// none. Valid only after getPool has run.
func mustGetCatalog() *catalog.Catalog {
	cat := getCatalog()
	if cat == nil {
		fmt.Fprintln(os.Stderr, "Error: no catalog index available for this pool")
		os.Exit(1)
	}
	return cat
}
