package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fnpool/internal/hashing"
	"fnpool/internal/remote"
)

var pushFormat string

var pushCmd = &cobra.Command{
	Use:   "push <hash> <remote>",
	Short: "Copy a function to a remote pool",
	Long: `Copy a function and its transitive dependencies into a registered
remote pool. Objects the remote already has are skipped; mapping
variants are merged.

Examples:
  fnpool push 4ac9...beef shared
  fnpool push 4ac9...beef backup --format json`,
	Args: cobra.ExactArgs(2),
	Run:  runPush,
}

func init() {
	pushCmd.Flags().StringVar(&pushFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(pushCmd)
}

// TransferResponseCLI reports one push or pull.
type TransferResponseCLI struct {
	Direction string `json:"direction"`
	Remote    string `json:"remote"`
	Hash      string `json:"hash"`
	Objects   int    `json:"objects"`
	Mappings  int    `json:"mappings"`
	Skipped   int    `json:"skipped"`
}

func runPush(cmd *cobra.Command, args []string) {
	logger := newLogger(pushFormat)
	root := mustGetPoolRoot()
	p, _ := mustGetPool(root, logger)
	hash, name := args[0], args[1]

	reg, err := remote.LoadRegistry(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading remotes: %v\n", err)
		os.Exit(1)
	}

	result, err := remote.Push(p.Store(), reg, name, hash, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pushing %s: %v\n", hashing.Short(hash), err)
		os.Exit(1)
	}

	resp := &TransferResponseCLI{
		Direction: "push",
		Remote:    name,
		Hash:      hash,
		Objects:   result.Objects,
		Mappings:  result.Mappings,
		Skipped:   result.Skipped,
	}
	output, err := FormatResponse(resp, OutputFormat(pushFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
