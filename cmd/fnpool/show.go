package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fnpool/internal/config"
	"fnpool/internal/errors"
	"fnpool/internal/hashing"
	"fnpool/internal/pool"
	"fnpool/internal/resolve"
)

var (
	showLang      string
	showMapping   string
	showCanonical bool
	showResolve   bool
	showFormat    string
)

var showCmd = &cobra.Command{
	Use:   "show <hash>",
	Short: "Show a stored function's source",
	Long: `Reconstruct the surface form of a stored function: its original
names, docstring, and dependency aliases for one language. Without
--lang the configured language preference order is tried in turn.

When a language has several mapping variants, the candidates are listed
and one must be picked with --mapping.

Examples:
  fnpool show 4ac9...beef
  fnpool show 4ac9...beef --lang fra
  fnpool show 4ac9...beef --lang eng --mapping 9c01...77aa
  fnpool show 4ac9...beef --canonical
  fnpool show 4ac9...beef --resolve`,
	Args: cobra.ExactArgs(1),
	Run:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showLang, "lang", "", "Language to reconstruct (default: configured preference order)")
	showCmd.Flags().StringVar(&showMapping, "mapping", "", "Mapping hash selecting one variant")
	showCmd.Flags().BoolVar(&showCanonical, "canonical", false, "Print the canonical template instead of a surface form")
	showCmd.Flags().BoolVar(&showResolve, "resolve", false, "Print the function linked with all its dependencies")
	showCmd.Flags().StringVar(&showFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(showCmd)
}

// ShowResponseCLI carries one reconstructed source listing.
type ShowResponseCLI struct {
	Hash        string `json:"hash"`
	Form        string `json:"form"`
	Language    string `json:"language,omitempty"`
	MappingHash string `json:"mappingHash,omitempty"`
	Source      string `json:"source"`
}

func runShow(cmd *cobra.Command, args []string) {
	logger := newLogger(showFormat)
	root := mustGetPoolRoot()
	p, cfg := mustGetPool(root, logger)
	hash := args[0]

	resp := &ShowResponseCLI{Hash: hash, MappingHash: showMapping}

	switch {
	case showCanonical:
		source, err := p.Canonical(hash)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		resp.Form = "canonical"
		resp.Source = source

	case showResolve:
		source, language, err := resolvedSource(p, cfg, hash)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resolving %s: %v\n", hashing.Short(hash), err)
			os.Exit(1)
		}
		resp.Form = "resolved"
		resp.Language = language
		resp.Source = source

	default:
		source, language, err := surfaceSource(p, cfg, hash)
		if err != nil {
			if errors.Is(err, errors.AmbiguousMapping) {
				printMappingCandidates(p, hash, language)
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}
		resp.Form = "surface"
		resp.Language = language
		resp.Source = source
	}

	output, err := FormatResponse(resp, OutputFormat(showFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

// surfaceSource reconstructs the surface form in the first preferred
// language that has a mapping. The returned language is the one the
// failure happened in when err is non-nil.
func surfaceSource(p *pool.Pool, cfg *config.Config, hash string) (string, string, error) {
	prefs := langPrefs(cfg, showLang)
	for i, language := range prefs {
		source, err := p.Show(hash, language, showMapping)
		switch {
		case err == nil:
			return source, language, nil
		case errors.Is(err, errors.NotFound) && i < len(prefs)-1:
			continue
		default:
			return "", language, err
		}
	}
	return "", "", errors.Newf(errors.NotFound, "no language preference given")
}

// resolvedSource links the function with its transitive dependencies
// into one self-contained program listing.
func resolvedSource(p *pool.Pool, cfg *config.Config, hash string) (string, string, error) {
	resolver, err := resolve.New(p.Store(), newLogger(showFormat))
	if err != nil {
		return "", "", err
	}
	res, err := resolver.Resolve(hash, langPrefs(cfg, showLang))
	if err != nil {
		return "", "", err
	}
	prog, err := resolve.Assemble(res)
	if err != nil {
		return "", "", err
	}
	source, err := prog.Render()
	if err != nil {
		return "", "", err
	}
	return source, res.TargetUnit().Language, nil
}

// printMappingCandidates lists the variants of an ambiguous language so
// the user can re-run with --mapping.
func printMappingCandidates(p *pool.Pool, hash, language string) {
	refs, err := p.Store().ListMappings(hash, language)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Function %s has %d %s mappings; pass --mapping to pick one:\n",
		hashing.Short(hash), len(refs), language)
	for _, ref := range refs {
		line := "  " + ref.Hash
		if ref.Comment != "" {
			line += "  (" + ref.Comment + ")"
		}
		fmt.Fprintln(os.Stderr, line)
	}
}
