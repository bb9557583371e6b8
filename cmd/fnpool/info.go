package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	infoFormat string
)

var infoCmd = &cobra.Command{
	Use:   "info <hash>",
	Short: "Show a function's metadata",
	Long: `Show a stored function's metadata: schema version, author, creation
time, parentage, check functions, languages with their mapping counts,
and direct dependencies.

Examples:
  fnpool info 4ac9...beef
  fnpool info 4ac9...beef --format json`,
	Args: cobra.ExactArgs(1),
	Run:  runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&infoFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) {
	logger := newLogger(infoFormat)
	root := mustGetPoolRoot()
	p, _ := mustGetPool(root, logger)

	info, err := p.Info(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(info, OutputFormat(infoFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
