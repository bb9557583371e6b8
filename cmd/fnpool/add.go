package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fnpool/internal/pool"
)

var (
	addLang    string
	addComment string
	addParent  string
	addChecks  []string
	addFormat  string
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a function to the pool",
	Long: `Canonicalize a single-function source file and store it under its
identity hash, together with a localization mapping for the given
language. Re-adding equivalent logic is a no-op on the object; the new
localization is stored alongside the existing ones.

The file must contain zero or more imports and exactly one function
declaration. Pass "-" to read from stdin.

Examples:
  fnpool add sum.go
  fnpool add sum.go --lang fra --comment "version scolaire"
  fnpool add sum.go --parent 4ac9...beef
  fnpool add sum_test.go --check 4ac9...beef`,
	Args: cobra.ExactArgs(1),
	Run:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addLang, "lang", "", "Language code for the localization (default: first configured language)")
	addCmd.Flags().StringVar(&addComment, "comment", "", "Comment distinguishing this mapping from other variants")
	addCmd.Flags().StringVar(&addParent, "parent", "", "Hash of the function this one was forked from")
	addCmd.Flags().StringSliceVar(&addChecks, "check", nil, "Hash of a function this one is a check for (repeatable)")
	addCmd.Flags().StringVar(&addFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	logger := newLogger(addFormat)
	root := mustGetPoolRoot()
	p, cfg := mustGetPool(root, logger)

	name, source, err := readSource(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[0], err)
		os.Exit(1)
	}

	res, err := p.Add(source, pool.AddOptions{
		Filename:    name,
		Language:    langPrefs(cfg, addLang)[0],
		Comment:     addComment,
		Parent:      addParent,
		Checks:      addChecks,
		AuthorName:  cfg.Author.Name,
		AuthorEmail: cfg.Author.Email,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding function: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(res, OutputFormat(addFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

// readSource reads a source file, or stdin when the argument is "-".
func readSource(arg string) (name, source string, err error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return "stdin", string(data), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", "", err
	}
	return filepath.Base(arg), string(data), nil
}
