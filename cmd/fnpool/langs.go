package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fnpool/internal/pool"
)

var (
	langsFormat string
)

var langsCmd = &cobra.Command{
	Use:   "langs <hash>",
	Short: "List the languages a function can be shown in",
	Long: `List every language that has at least one localization mapping for
the function, with the number of variants per language.

Examples:
  fnpool langs 4ac9...beef`,
	Args: cobra.ExactArgs(1),
	Run:  runLangs,
}

func init() {
	langsCmd.Flags().StringVar(&langsFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(langsCmd)
}

// LangsResponseCLI lists one function's languages.
type LangsResponseCLI struct {
	Hash      string              `json:"hash"`
	Languages []pool.LanguageInfo `json:"languages"`
}

func runLangs(cmd *cobra.Command, args []string) {
	logger := newLogger(langsFormat)
	root := mustGetPoolRoot()
	p, _ := mustGetPool(root, logger)
	hash := args[0]

	languages, err := p.Languages(hash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	resp := &LangsResponseCLI{Hash: hash}
	for _, language := range languages {
		refs, err := p.Store().ListMappings(hash, language)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		resp.Languages = append(resp.Languages, pool.LanguageInfo{
			Language: language,
			Mappings: len(refs),
		})
	}

	output, err := FormatResponse(resp, OutputFormat(langsFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
