package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"fnpool/internal/canon"
	"fnpool/internal/config"
	"fnpool/internal/errors"
	"fnpool/internal/hashing"
	"fnpool/internal/pool"
)

var (
	translateLang        string
	translateFromLang    string
	translateFromMapping string
	translateDocstring   string
	translateNames       []string
	translateComment     string
	translateInteractive bool
	translateFormat      string
)

var translateCmd = &cobra.Command{
	Use:   "translate <hash>",
	Short: "Add a localization in another language",
	Long: `Create a new localization mapping for an existing function, starting
from one of its stored mappings. The dependency aliasing is carried
over; the docstring, names, and comment can be replaced per flag or
interactively.

Names are replaced by canonical slot: F is the function's own name,
v1, v2, ... the other identifiers in order of first occurrence.

Examples:
  fnpool translate 4ac9...beef --lang fra --interactive
  fnpool translate 4ac9...beef --lang fra \
      --docstring "Additionne deux nombres." \
      --name F=calculeSomme --name v1=premier --name v2=deuxieme`,
	Args: cobra.ExactArgs(1),
	Run:  runTranslate,
}

func init() {
	translateCmd.Flags().StringVar(&translateLang, "lang", "", "Language code of the new localization (required)")
	translateCmd.Flags().StringVar(&translateFromLang, "from-lang", "", "Language to start from (default: configured preference order)")
	translateCmd.Flags().StringVar(&translateFromMapping, "from-mapping", "", "Mapping hash selecting the starting variant")
	translateCmd.Flags().StringVar(&translateDocstring, "docstring", "", "Docstring of the new localization")
	translateCmd.Flags().StringSliceVar(&translateNames, "name", nil, "Name replacement slot=identifier (repeatable)")
	translateCmd.Flags().StringVar(&translateComment, "comment", "", "Comment distinguishing this mapping from other variants")
	translateCmd.Flags().BoolVarP(&translateInteractive, "interactive", "i", false, "Prompt for the docstring, each name, and the comment")
	translateCmd.Flags().StringVar(&translateFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(translateCmd)
}

// TranslateResponseCLI reports one stored translation.
type TranslateResponseCLI struct {
	Hash         string `json:"hash"`
	Language     string `json:"language"`
	MappingHash  string `json:"mappingHash"`
	FunctionName string `json:"functionName"`
}

func runTranslate(cmd *cobra.Command, args []string) {
	logger := newLogger(translateFormat)
	root := mustGetPoolRoot()
	p, cfg := mustGetPool(root, logger)
	hash := args[0]

	if translateLang == "" {
		fmt.Fprintln(os.Stderr, "Error: --lang is required")
		os.Exit(1)
	}

	src, srcLang, srcHash, err := sourceMapping(p, cfg, hash)
	if err != nil {
		if errors.Is(err, errors.AmbiguousMapping) {
			printMappingCandidates(p, hash, srcLang)
			fmt.Fprintln(os.Stderr, "Pass --from-mapping to pick the starting variant.")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	m := &pool.Mapping{
		Docstring:    src.Docstring,
		NameMapping:  make(map[string]string, len(src.NameMapping)),
		AliasMapping: src.AliasMapping,
		Comment:      translateComment,
	}
	for slot, name := range src.NameMapping {
		m.NameMapping[slot] = name
	}

	if translateInteractive {
		if err := promptTranslation(p, hash, srcLang, srcHash, m); err != nil {
			fmt.Fprintf(os.Stderr, "Translation cancelled: %v\n", err)
			os.Exit(1)
		}
	} else {
		if cmd.Flags().Changed("docstring") {
			m.Docstring = translateDocstring
		}
		for _, pair := range translateNames {
			slot, name, ok := strings.Cut(pair, "=")
			if !ok || slot == "" || name == "" {
				fmt.Fprintf(os.Stderr, "Error: --name %q is not slot=identifier\n", pair)
				os.Exit(1)
			}
			m.NameMapping[slot] = name
		}
	}

	mappingHash, err := p.AddMapping(hash, translateLang, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding translation: %v\n", err)
		os.Exit(1)
	}

	resp := &TranslateResponseCLI{
		Hash:         hash,
		Language:     translateLang,
		MappingHash:  mappingHash,
		FunctionName: m.NameMapping[canon.CallSlot],
	}
	output, err := FormatResponse(resp, OutputFormat(translateFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

// sourceMapping loads the mapping the translation starts from, walking
// the language preference order. The returned language is the one the
// failure happened in when err is non-nil.
func sourceMapping(p *pool.Pool, cfg *config.Config, hash string) (*pool.Mapping, string, string, error) {
	prefs := langPrefs(cfg, translateFromLang)
	for i, language := range prefs {
		m, mappingHash, err := p.Store().LoadMapping(hash, language, translateFromMapping)
		switch {
		case err == nil:
			return m, language, mappingHash, nil
		case errors.Is(err, errors.NotFound) && i < len(prefs)-1:
			continue
		default:
			return nil, language, "", err
		}
	}
	return nil, "", "", errors.Newf(errors.NotFound, "no language preference given")
}

// promptTranslation fills m from an interactive form, prefilled with the
// starting mapping's values. The function's current surface form is
// printed first so the translator sees what the slots bind.
func promptTranslation(p *pool.Pool, hash, srcLang, srcMappingHash string, m *pool.Mapping) error {
	if source, err := p.Show(hash, srcLang, srcMappingHash); err == nil {
		fmt.Println(styles.Muted.Render(fmt.Sprintf("%s in %s:", hashing.Short(hash), srcLang)))
		fmt.Println(source)
	}

	slots := sortedSlots(m.NameMapping)
	names := make([]string, len(slots))
	for i, slot := range slots {
		names[i] = m.NameMapping[slot]
	}

	fields := []huh.Field{
		huh.NewText().
			Title("Docstring").
			Description("Documentation text in " + translateLang).
			Value(&m.Docstring),
	}
	for i, slot := range slots {
		title := "Name for slot " + slot
		if slot == canon.CallSlot {
			title = "Function name"
		}
		fields = append(fields, huh.NewInput().
			Title(title).
			Description("was "+names[i]).
			Value(&names[i]))
	}
	fields = append(fields, huh.NewInput().
		Title("Comment").
		Description("Distinguishes this mapping from other variants (optional)").
		Value(&m.Comment))

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	for i, slot := range slots {
		m.NameMapping[slot] = names[i]
	}
	return nil
}

// sortedSlots orders slot names for prompting: the call slot first, then
// v1, v2, ... numerically.
func sortedSlots(nameMapping map[string]string) []string {
	slots := make([]string, 0, len(nameMapping))
	for slot := range nameMapping {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i] == canon.CallSlot {
			return true
		}
		if slots[j] == canon.CallSlot {
			return false
		}
		a, _ := strconv.Atoi(strings.TrimPrefix(slots[i], "v"))
		b, _ := strconv.Atoi(strings.TrimPrefix(slots[j], "v"))
		return a < b
	})
	return slots
}
