package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fnpool/internal/hashing"
	"fnpool/internal/remote"
)

var (
	bundleExportOutput string
	bundleExportFormat string
	bundleImportFormat string
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Export and import function bundles",
	Long: `A bundle is a single compressed file carrying a function and its
transitive dependencies, for moving functions between pools that share
no filesystem.`,
}

var bundleExportCmd = &cobra.Command{
	Use:   "export <hash>",
	Short: "Write a function and its dependencies to a bundle",
	Long: `Write a function and its transitive dependencies as a bundle. Without
--output the bundle goes to stdout and the summary to stderr.

Examples:
  fnpool bundle export 4ac9...beef -o sum.fnb
  fnpool bundle export 4ac9...beef > sum.fnb`,
	Args: cobra.ExactArgs(1),
	Run:  runBundleExport,
}

var bundleImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a bundle into this pool",
	Long: `Import every function a bundle carries. Objects the pool already has
are skipped. Pass - to read the bundle from stdin.

Examples:
  fnpool bundle import sum.fnb
  cat sum.fnb | fnpool bundle import -`,
	Args: cobra.ExactArgs(1),
	Run:  runBundleImport,
}

func init() {
	bundleExportCmd.Flags().StringVarP(&bundleExportOutput, "output", "o", "", "Bundle file to write (default: stdout)")
	bundleExportCmd.Flags().StringVar(&bundleExportFormat, "format", "human", "Output format (json, yaml, human)")
	bundleImportCmd.Flags().StringVar(&bundleImportFormat, "format", "human", "Output format (json, yaml, human)")

	bundleCmd.AddCommand(bundleExportCmd)
	bundleCmd.AddCommand(bundleImportCmd)
	rootCmd.AddCommand(bundleCmd)
}

// BundleExportResponseCLI reports one written bundle.
type BundleExportResponseCLI struct {
	BundleID  string `json:"bundleId"`
	Hash      string `json:"hash"`
	Functions int    `json:"functions"`
	Output    string `json:"output,omitempty"`
}

// BundleImportResponseCLI reports one imported bundle.
type BundleImportResponseCLI struct {
	BundleID string `json:"bundleId"`
	Target   string `json:"target"`
	Objects  int    `json:"objects"`
	Mappings int    `json:"mappings"`
	Skipped  int    `json:"skipped"`
}

func runBundleExport(cmd *cobra.Command, args []string) {
	logger := newLogger(bundleExportFormat)
	root := mustGetPoolRoot()
	p, _ := mustGetPool(root, logger)
	hash := args[0]

	var w io.Writer = os.Stdout
	toStdout := bundleExportOutput == ""
	if !toStdout {
		f, err := os.Create(bundleExportOutput)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", bundleExportOutput, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	manifest, err := remote.Export(p.Store(), hash, w, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting %s: %v\n", hashing.Short(hash), err)
		os.Exit(1)
	}

	resp := &BundleExportResponseCLI{
		BundleID:  manifest.BundleID,
		Hash:      hash,
		Functions: len(manifest.Functions),
		Output:    bundleExportOutput,
	}
	output, err := FormatResponse(resp, OutputFormat(bundleExportFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	// The bundle owns stdout when no output file was given.
	if toStdout {
		fmt.Fprintln(os.Stderr, output)
	} else {
		fmt.Println(output)
	}
}

func runBundleImport(cmd *cobra.Command, args []string) {
	logger := newLogger(bundleImportFormat)
	root := mustGetPoolRoot()
	p, _ := mustGetPool(root, logger)

	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", args[0], err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}

	result, err := remote.Import(p.Store(), r, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing bundle: %v\n", err)
		os.Exit(1)
	}

	resp := &BundleImportResponseCLI{
		BundleID: result.BundleID,
		Target:   result.Target,
		Objects:  result.Objects,
		Mappings: result.Mappings,
		Skipped:  result.Skipped,
	}
	output, err := FormatResponse(resp, OutputFormat(bundleImportFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
