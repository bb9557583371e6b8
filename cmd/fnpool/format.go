package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"fnpool/internal/catalog"
	"fnpool/internal/hashing"
	"fnpool/internal/legacy"
	"fnpool/internal/pool"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML formats the response as YAML
func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *pool.AddResult:
		return formatAddHuman(v)
	case *ShowResponseCLI:
		return formatShowHuman(v)
	case *RunResponseCLI:
		return formatRunHuman(v)
	case *TranslateResponseCLI:
		return formatTranslateHuman(v)
	case *pool.FunctionInfo:
		return formatInfoHuman(v)
	case *LangsResponseCLI:
		return formatLangsHuman(v)
	case *ValidateResponseCLI:
		return formatValidateHuman(v)
	case *legacy.BatchResult:
		return formatMigrateHuman(v)
	case *ListResponseCLI:
		return formatListHuman(v)
	case *SearchResponseCLI:
		return formatSearchHuman(v)
	case *ReindexResponseCLI:
		return formatReindexHuman(v)
	case *RemoteResponseCLI:
		return formatRemoteHuman(v)
	case *RemoteListResponseCLI:
		return formatRemoteListHuman(v)
	case *TransferResponseCLI:
		return formatTransferHuman(v)
	case *BundleExportResponseCLI:
		return formatBundleExportHuman(v)
	case *BundleImportResponseCLI:
		return formatBundleImportHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

// formatAddHuman formats an AddResult in human-readable format
func formatAddHuman(resp *pool.AddResult) (string, error) {
	var b strings.Builder

	verb := "Stored"
	if !resp.Created {
		verb = "Matched existing"
	}
	b.WriteString(fmt.Sprintf("%s %s %s (%s)\n",
		styles.StatusOK, verb, styles.Label.Render(resp.FunctionName), resp.Language))
	b.WriteString(fmt.Sprintf("  Function: %s\n", styles.Hash.Render(resp.Hash)))
	b.WriteString(fmt.Sprintf("  Mapping:  %s\n", styles.Hash.Render(resp.MappingHash)))

	if len(resp.Dependencies) > 0 {
		b.WriteString("  Dependencies:\n")
		for _, dep := range resp.Dependencies {
			b.WriteString(fmt.Sprintf("    - %s\n", styles.Hash.Render(dep)))
		}
	}

	return b.String(), nil
}

// formatShowHuman formats a ShowResponseCLI in human-readable format.
// The header is a Go comment so redirected output stays a valid source
// listing.
func formatShowHuman(resp *ShowResponseCLI) (string, error) {
	var b strings.Builder

	header := hashing.Short(resp.Hash)
	switch resp.Form {
	case "canonical":
		header += "  canonical template"
	case "resolved":
		header += "  resolved program (" + resp.Language + ")"
	default:
		header += "  " + resp.Language
		if resp.MappingHash != "" {
			header += "  mapping " + hashing.Short(resp.MappingHash)
		}
	}
	b.WriteString(styles.Muted.Render("// "+header) + "\n")
	b.WriteString(strings.TrimRight(resp.Source, "\n") + "\n")

	return b.String(), nil
}

// formatRunHuman formats a RunResponseCLI in human-readable format
func formatRunHuman(resp *RunResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s %s  %s\n",
		styles.StatusOK,
		styles.Label.Render(resp.Call),
		styles.Muted.Render(fmt.Sprintf("(%s, %s)", resp.Language, plural(resp.Units, "unit")))))
	if out := strings.TrimRight(resp.Output, "\n"); out != "" {
		b.WriteString(out + "\n")
	}

	return b.String(), nil
}

// formatTranslateHuman formats a TranslateResponseCLI in human-readable format
func formatTranslateHuman(resp *TranslateResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s Added %s localization %s\n",
		styles.StatusOK, resp.Language, styles.Label.Render(resp.FunctionName)))
	b.WriteString(fmt.Sprintf("  Function: %s\n", styles.Hash.Render(resp.Hash)))
	b.WriteString(fmt.Sprintf("  Mapping:  %s\n", styles.Hash.Render(resp.MappingHash)))

	return b.String(), nil
}

// formatInfoHuman formats a FunctionInfo in human-readable format
func formatInfoHuman(resp *pool.FunctionInfo) (string, error) {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Function "+hashing.Short(resp.Hash)) + "\n")
	b.WriteString(styles.Rule.Render(strings.Repeat("─", 50)) + "\n")
	b.WriteString(fmt.Sprintf("%s %s\n", styles.Label.Render("Hash:"), styles.Hash.Render(resp.Hash)))
	b.WriteString(fmt.Sprintf("%s v%d\n", styles.Label.Render("Schema:"), resp.SchemaVersion))

	author := resp.AuthorName
	if resp.AuthorEmail != "" {
		author += " <" + resp.AuthorEmail + ">"
	}
	b.WriteString(fmt.Sprintf("%s %s\n", styles.Label.Render("Author:"), author))
	b.WriteString(fmt.Sprintf("%s %s\n", styles.Label.Render("Created:"), resp.Created))

	if resp.Parent != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", styles.Label.Render("Parent:"), styles.Hash.Render(resp.Parent)))
	}
	if len(resp.Checks) > 0 {
		b.WriteString(styles.Label.Render("Checks:") + "\n")
		for _, check := range resp.Checks {
			b.WriteString(fmt.Sprintf("  - %s\n", styles.Hash.Render(check)))
		}
	}

	b.WriteString(styles.Label.Render("Languages:") + "\n")
	for _, lang := range resp.Languages {
		b.WriteString(fmt.Sprintf("  %s  %s\n", lang.Language, plural(lang.Mappings, "mapping")))
	}

	if len(resp.Dependencies) > 0 {
		b.WriteString(styles.Label.Render("Dependencies:") + "\n")
		for _, dep := range resp.Dependencies {
			b.WriteString(fmt.Sprintf("  - %s\n", styles.Hash.Render(dep)))
		}
	}

	return b.String(), nil
}

// formatLangsHuman formats a LangsResponseCLI in human-readable format
func formatLangsHuman(resp *LangsResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s languages:\n", styles.Hash.Render(hashing.Short(resp.Hash))))
	if len(resp.Languages) == 0 {
		b.WriteString("  (no localizations stored)\n")
		return b.String(), nil
	}
	for _, lang := range resp.Languages {
		b.WriteString(fmt.Sprintf("  %s  %s\n", lang.Language, plural(lang.Mappings, "mapping")))
	}

	return b.String(), nil
}

// formatValidateHuman formats a ValidateResponseCLI in human-readable format
func formatValidateHuman(resp *ValidateResponseCLI) (string, error) {
	var b strings.Builder

	if resp.Failed == 0 {
		b.WriteString(fmt.Sprintf("%s All checks passed (%s)\n",
			styles.StatusOK, plural(resp.Checked, "function")))
		return b.String(), nil
	}

	b.WriteString(fmt.Sprintf("%s %d of %s failed validation\n\n",
		styles.StatusFail, resp.Failed, plural(resp.Checked, "function")))
	for _, res := range resp.Results {
		if res.OK {
			continue
		}
		b.WriteString(fmt.Sprintf("%s %s\n", styles.StatusFail, styles.Hash.Render(res.Hash)))
		for _, problem := range res.Problems {
			b.WriteString(fmt.Sprintf("    - %s\n", problem))
		}
	}

	return b.String(), nil
}

// formatMigrateHuman formats a BatchResult in human-readable format
func formatMigrateHuman(batch *legacy.BatchResult) (string, error) {
	var b strings.Builder

	if batch.Total == 0 {
		b.WriteString("No legacy records found.\n")
		return b.String(), nil
	}

	title := "Migration"
	if batch.DryRun {
		title += " (dry run)"
	}
	b.WriteString(styles.Title.Render(title) + "\n")
	b.WriteString(styles.Rule.Render(strings.Repeat("─", 50)) + "\n")
	b.WriteString(fmt.Sprintf("Total: %d  Migrated: %d  Failed: %d\n", batch.Total, batch.Migrated, batch.Failed))
	if batch.RunID != "" {
		b.WriteString(styles.Muted.Render("Run: "+batch.RunID) + "\n")
	}
	b.WriteString("\n")

	for _, res := range batch.Results {
		switch {
		case res.Error != "":
			b.WriteString(fmt.Sprintf("%s %s: %s\n",
				styles.StatusFail, styles.Hash.Render(hashing.Short(res.Hash)), res.Error))
		case res.Migrated:
			b.WriteString(fmt.Sprintf("%s %s\n",
				styles.StatusOK, styles.Hash.Render(hashing.Short(res.Hash))))
		default:
			b.WriteString(fmt.Sprintf("- %s (would migrate)\n",
				styles.Hash.Render(hashing.Short(res.Hash))))
		}
	}

	return b.String(), nil
}

// formatListHuman formats a ListResponseCLI in human-readable format
func formatListHuman(resp *ListResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(styles.Title.Render(fmt.Sprintf("Functions (%d)", resp.Total)) + "\n")
	b.WriteString(styles.Rule.Render(strings.Repeat("─", 50)) + "\n\n")
	if resp.Total == 0 {
		b.WriteString("No functions catalogued. Add one with 'fnpool add <file>'.\n")
		return b.String(), nil
	}
	for _, entry := range resp.Entries {
		writeEntryHuman(&b, entry)
	}

	return b.String(), nil
}

// formatSearchHuman formats a SearchResponseCLI in human-readable format
func formatSearchHuman(resp *SearchResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Search results for: "+resp.Term) + "\n")
	b.WriteString(styles.Rule.Render(strings.Repeat("─", 50)) + "\n\n")
	if resp.Total == 0 {
		b.WriteString("No matches.\n")
		return b.String(), nil
	}
	b.WriteString(fmt.Sprintf("Found %s\n\n", plural(resp.Total, "match", "matches")))
	for _, entry := range resp.Entries {
		writeEntryHuman(&b, entry)
	}

	return b.String(), nil
}

// writeEntryHuman writes one catalog entry as a two-line block.
func writeEntryHuman(b *strings.Builder, entry catalog.Entry) {
	line := fmt.Sprintf("%s  %s", styles.Label.Render(entry.Name), entry.Language)
	if entry.AuthorName != "" {
		line += "  by " + entry.AuthorName
	}
	if entry.Created != "" {
		line += "  " + styles.Muted.Render(formatCreated(entry.Created))
	}
	b.WriteString(line + "\n")

	detail := fmt.Sprintf("  %s  mapping %s",
		styles.Hash.Render(hashing.Short(entry.Hash)),
		styles.Hash.Render(hashing.Short(entry.MappingHash)))
	if entry.Comment != "" {
		detail += "  (" + entry.Comment + ")"
	}
	b.WriteString(detail + "\n")
}

// formatReindexHuman formats a ReindexResponseCLI in human-readable format
func formatReindexHuman(resp *ReindexResponseCLI) (string, error) {
	return fmt.Sprintf("%s Catalog rebuilt: %s indexed",
		styles.StatusOK, plural(resp.Mappings, "mapping")), nil
}

// formatRemoteHuman formats a RemoteResponseCLI in human-readable format
func formatRemoteHuman(resp *RemoteResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s Added remote %s (%s)\n",
		styles.StatusOK, styles.Label.Render(resp.Remote.Name), resp.Remote.Path))
	b.WriteString(styles.Muted.Render("  uid "+resp.Remote.UID) + "\n")

	return b.String(), nil
}

// formatRemoteListHuman formats a RemoteListResponseCLI in human-readable format
func formatRemoteListHuman(resp *RemoteListResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(styles.Title.Render(fmt.Sprintf("Remotes (%d)", resp.Total)) + "\n")
	b.WriteString(styles.Rule.Render(strings.Repeat("─", 50)) + "\n\n")
	if resp.Total == 0 {
		b.WriteString("No remotes configured. Add one with 'fnpool remote add <name> <path>'.\n")
		return b.String(), nil
	}
	for _, rem := range resp.Remotes {
		b.WriteString(fmt.Sprintf("%s  %s\n", styles.Label.Render(rem.Name), rem.Path))
		b.WriteString(styles.Muted.Render(fmt.Sprintf("  added %s  uid %s",
			rem.AddedAt.Format("2006-01-02"), rem.UID)) + "\n")
	}

	return b.String(), nil
}

// formatTransferHuman formats a TransferResponseCLI in human-readable format
func formatTransferHuman(resp *TransferResponseCLI) (string, error) {
	var b strings.Builder

	verb, prep := "Pushed", "to"
	if resp.Direction == "pull" {
		verb, prep = "Pulled", "from"
	}
	b.WriteString(fmt.Sprintf("%s %s %s %s %s\n",
		styles.StatusOK, verb, styles.Hash.Render(hashing.Short(resp.Hash)), prep,
		styles.Label.Render(resp.Remote)))
	b.WriteString(fmt.Sprintf("  Objects: %d new, %d already present\n", resp.Objects, resp.Skipped))
	b.WriteString(fmt.Sprintf("  Mappings: %d\n", resp.Mappings))

	return b.String(), nil
}

// formatBundleExportHuman formats a BundleExportResponseCLI in human-readable format
func formatBundleExportHuman(resp *BundleExportResponseCLI) (string, error) {
	var b strings.Builder

	dest := resp.Output
	if dest == "" {
		dest = "stdout"
	}
	b.WriteString(fmt.Sprintf("%s Exported %s (%s) to %s\n",
		styles.StatusOK, styles.Hash.Render(hashing.Short(resp.Hash)),
		plural(resp.Functions, "function"), dest))
	b.WriteString(styles.Muted.Render("  bundle "+resp.BundleID) + "\n")

	return b.String(), nil
}

// formatBundleImportHuman formats a BundleImportResponseCLI in human-readable format
func formatBundleImportHuman(resp *BundleImportResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s Imported bundle targeting %s\n",
		styles.StatusOK, styles.Hash.Render(hashing.Short(resp.Target))))
	b.WriteString(fmt.Sprintf("  Objects: %d new, %d already present\n", resp.Objects, resp.Skipped))
	b.WriteString(fmt.Sprintf("  Mappings: %d\n", resp.Mappings))
	b.WriteString(styles.Muted.Render("  bundle "+resp.BundleID) + "\n")

	return b.String(), nil
}

// plural counts a noun; an explicit plural form overrides the s suffix.
func plural(n int, word string, forms ...string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	if len(forms) > 0 {
		return fmt.Sprintf("%d %s", n, forms[0])
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// formatCreated trims an RFC 3339 timestamp to its date.
func formatCreated(created string) string {
	if len(created) >= 10 {
		return created[:10]
	}
	return created
}
