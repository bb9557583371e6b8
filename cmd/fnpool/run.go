package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fnpool/internal/hashing"
	"fnpool/internal/resolve"
)

var (
	runLang    string
	runTimeout time.Duration
	runFormat  string
)

var runCmd = &cobra.Command{
	Use:   "run <hash> [-- <arg>...]",
	Short: "Run a stored function with its dependencies",
	Long: `Resolve a function and its transitive dependencies, link them into
one program, and evaluate a call of the function in an embedded
interpreter. Arguments after the hash are spliced into the call as Go
expressions, so strings need their quotes.

Examples:
  fnpool run 4ac9...beef -- 2 3
  fnpool run 4ac9...beef --lang fra -- '"bonjour"'
  fnpool run 4ac9...beef --timeout 10s`,
	Args: cobra.MinimumNArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runLang, "lang", "", "Language preference for denormalizing each function")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Abort evaluation after this duration (0: no limit)")
	runCmd.Flags().StringVar(&runFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(runCmd)
}

// RunResponseCLI reports one evaluated call.
type RunResponseCLI struct {
	Hash     string `json:"hash"`
	Function string `json:"function"`
	Language string `json:"language"`
	Call     string `json:"call"`
	Output   string `json:"output"`
	Units    int    `json:"units"`
}

func runRun(cmd *cobra.Command, args []string) {
	logger := newLogger(runFormat)
	root := mustGetPoolRoot()
	p, cfg := mustGetPool(root, logger)
	hash := args[0]

	resolver, err := resolve.New(p.Store(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	res, err := resolver.Resolve(hash, langPrefs(cfg, runLang))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving %s: %v\n", hashing.Short(hash), err)
		os.Exit(1)
	}
	prog, err := resolve.Assemble(res)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error linking %s: %v\n", hashing.Short(hash), err)
		os.Exit(1)
	}
	prog.Call = res.CallExpression(args[1:])

	ctx := newContext()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	out, err := resolve.NewExecutor(logger).Run(ctx, prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running %s: %v\n", hashing.Short(hash), err)
		os.Exit(1)
	}

	target := res.TargetUnit()
	resp := &RunResponseCLI{
		Hash:     hash,
		Function: target.Name,
		Language: target.Language,
		Call:     prog.Call,
		Output:   out,
		Units:    len(res.Units),
	}
	output, err := FormatResponse(resp, OutputFormat(runFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
