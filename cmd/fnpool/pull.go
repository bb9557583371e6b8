package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fnpool/internal/hashing"
	"fnpool/internal/remote"
)

var pullFormat string

var pullCmd = &cobra.Command{
	Use:   "pull <hash> <remote>",
	Short: "Copy a function from a remote pool",
	Long: `Copy a function and its transitive dependencies from a registered
remote pool into this one. Objects this pool already has are skipped;
mapping variants are merged.

Examples:
  fnpool pull 4ac9...beef shared`,
	Args: cobra.ExactArgs(2),
	Run:  runPull,
}

func init() {
	pullCmd.Flags().StringVar(&pullFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) {
	logger := newLogger(pullFormat)
	root := mustGetPoolRoot()
	p, _ := mustGetPool(root, logger)
	hash, name := args[0], args[1]

	reg, err := remote.LoadRegistry(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading remotes: %v\n", err)
		os.Exit(1)
	}

	result, err := remote.Pull(p.Store(), reg, name, hash, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pulling %s: %v\n", hashing.Short(hash), err)
		os.Exit(1)
	}

	resp := &TransferResponseCLI{
		Direction: "pull",
		Remote:    name,
		Hash:      hash,
		Objects:   result.Objects,
		Mappings:  result.Mappings,
		Skipped:   result.Skipped,
	}
	output, err := FormatResponse(resp, OutputFormat(pullFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
