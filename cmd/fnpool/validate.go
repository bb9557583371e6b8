package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fnpool/internal/errors"
	"fnpool/internal/pool"
)

var (
	validateAll    bool
	validateFormat string
)

var validateCmd = &cobra.Command{
	Use:   "validate [hash]",
	Short: "Check stored functions for structural completeness",
	Long: `Verify that a stored function's object file parses, declares the
expected schema, and carries at least one localization mapping. Every
violation found is reported, not just the first.

With --all the whole pool is checked; broken functions are reported
individually and do not hide the rest.

Examples:
  fnpool validate 4ac9...beef
  fnpool validate --all`,
	Args: cobra.MaximumNArgs(1),
	Run:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateAll, "all", false, "Validate every function in the pool")
	validateCmd.Flags().StringVar(&validateFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(validateCmd)
}

// ValidateResponseCLI tallies one validation run.
type ValidateResponseCLI struct {
	Checked int                     `json:"checked"`
	Failed  int                     `json:"failed"`
	Results []pool.ValidationResult `json:"results"`
}

func runValidate(cmd *cobra.Command, args []string) {
	logger := newLogger(validateFormat)
	root := mustGetPoolRoot()
	p, _ := mustGetPool(root, logger)

	if validateAll == (len(args) == 1) {
		fmt.Fprintln(os.Stderr, "Error: pass a hash or --all, not both")
		os.Exit(1)
	}

	var results []pool.ValidationResult
	if validateAll {
		var err error
		results, err = p.ValidateAll()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		res := pool.ValidationResult{Hash: args[0], OK: true}
		if err := p.Validate(args[0]); err != nil {
			res.OK = false
			if list, ok := err.(*errors.List); ok {
				res.Problems = list.Messages()
			} else {
				res.Problems = []string{err.Error()}
			}
		}
		results = []pool.ValidationResult{res}
	}

	resp := &ValidateResponseCLI{Checked: len(results), Results: results}
	for _, res := range results {
		if !res.OK {
			resp.Failed++
		}
	}

	output, err := FormatResponse(resp, OutputFormat(validateFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	if resp.Failed > 0 {
		os.Exit(1)
	}
}
