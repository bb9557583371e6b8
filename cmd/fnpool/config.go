package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fnpool/internal/config"
)

var (
	configFormat   string
	configShowDiff bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pool configuration",
	Long:  "View and manage the pool configuration stored in <pool-root>/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, including FNPOOL_* environment
overrides.

Examples:
  fnpool config show                 # Pretty-print current config
  fnpool config show --format json   # Raw JSON output
  fnpool config show --diff          # Only show non-default values`,
	Run: runConfigShow,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Long:  "Display all supported FNPOOL environment variable overrides",
	Run:   runConfigEnv,
}

var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print one effective configuration value",
	Args:  cobra.ExactArgs(1),
	Run:   runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set one configuration value",
	Long: `Write one configuration value to config.json. Paths are dotted:
author.name, author.email, languages, logging.format, logging.level.
Languages take a comma-separated list.

Examples:
  fnpool config set author.name "Ada Lovelace"
  fnpool config set languages fra,eng`,
	Args: cobra.ExactArgs(2),
	Run:  runConfigSet,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (json, human)")
	configShowCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEnvCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath   string               `json:"configPath,omitempty"`
	UsedDefaults bool                 `json:"usedDefaults"`
	EnvOverrides []config.EnvOverride `json:"envOverrides,omitempty"`
	Config       *config.Config       `json:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) {
	root := mustGetPoolRoot()

	result, err := config.LoadConfigWithDetails(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if configFormat == "json" {
		outputConfigJSON(result)
	} else {
		outputConfigHuman(result, configShowDiff)
	}
}

func outputConfigJSON(result *config.LoadResult) {
	response := ConfigShowResponse{
		ConfigPath:   result.ConfigPath,
		UsedDefaults: result.UsedDefaults,
		EnvOverrides: result.EnvOverrides,
		Config:       result.Config,
	}

	output, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}

func outputConfigHuman(result *config.LoadResult, diffOnly bool) {
	fmt.Println(styles.Title.Render("fnpool configuration"))
	fmt.Println(styles.Rule.Render(strings.Repeat("─", 50)))

	if result.UsedDefaults {
		fmt.Println("Source: defaults (no config file found)")
	} else if result.ConfigPath != "" {
		fmt.Printf("Source: %s\n", result.ConfigPath)
	}

	if len(result.EnvOverrides) > 0 {
		fmt.Println("\nEnvironment Overrides:")
		for _, ov := range result.EnvOverrides {
			fmt.Printf("  %s=%v (%s)\n", ov.EnvVar, ov.Value, ov.Path)
		}
	}

	fmt.Println()

	cfg := result.Config
	defaults := config.DefaultConfig()

	if diffOnly {
		fmt.Println("Modified Settings (differs from defaults):")
		fmt.Println()
		printConfigDiff(cfg, defaults)
		return
	}

	printConfigSection("version", cfg.Version, defaults.Version)
	printConfigSection("author.name", cfg.Author.Name, defaults.Author.Name)
	printConfigSection("author.email", cfg.Author.Email, defaults.Author.Email)
	printConfigSection("languages", strings.Join(cfg.Languages, ", "), strings.Join(defaults.Languages, ", "))
	printConfigSection("logging.format", cfg.Logging.Format, defaults.Logging.Format)
	printConfigSection("logging.level", cfg.Logging.Level, defaults.Logging.Level)

	fmt.Println()
	fmt.Println(styles.Muted.Render("Use 'fnpool config show --format json' for raw JSON"))
	fmt.Println(styles.Muted.Render("Use 'fnpool config env' to see supported environment variables"))
}

func printConfigSection(name string, value, defaultValue interface{}) {
	modified := ""
	if fmt.Sprintf("%v", value) != fmt.Sprintf("%v", defaultValue) {
		modified = styles.Muted.Render(fmt.Sprintf(" (default: %v)", defaultValue))
	}
	fmt.Printf("%s: %v%s\n", styles.Label.Render(name), value, modified)
}

func printConfigDiff(cfg, defaults *config.Config) {
	diffs := []string{}

	if cfg.Author.Name != defaults.Author.Name {
		diffs = append(diffs, fmt.Sprintf("author.name: %s", cfg.Author.Name))
	}
	if cfg.Author.Email != defaults.Author.Email {
		diffs = append(diffs, fmt.Sprintf("author.email: %s", cfg.Author.Email))
	}
	if strings.Join(cfg.Languages, ",") != strings.Join(defaults.Languages, ",") {
		diffs = append(diffs, fmt.Sprintf("languages: %s (default: %s)",
			strings.Join(cfg.Languages, ", "), strings.Join(defaults.Languages, ", ")))
	}
	if cfg.Logging.Format != defaults.Logging.Format {
		diffs = append(diffs, fmt.Sprintf("logging.format: %s (default: %s)", cfg.Logging.Format, defaults.Logging.Format))
	}
	if cfg.Logging.Level != defaults.Logging.Level {
		diffs = append(diffs, fmt.Sprintf("logging.level: %s (default: %s)", cfg.Logging.Level, defaults.Logging.Level))
	}

	if len(diffs) == 0 {
		fmt.Println("  (no modifications - using all defaults)")
		return
	}
	for _, d := range diffs {
		fmt.Printf("  %s\n", d)
	}
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	fmt.Println(styles.Title.Render("Supported FNPOOL Environment Variables"))
	fmt.Println(styles.Rule.Render(strings.Repeat("─", 50)))
	fmt.Println()

	type envVarInfo struct {
		name string
		desc string
	}
	categories := []struct {
		name string
		vars []envVarInfo
	}{
		{"General", []envVarInfo{
			{"FNPOOL_ROOT", "Pool root directory"},
			{"FNPOOL_CONFIG_PATH", "Path to config file"},
		}},
		{"Author", []envVarInfo{
			{"FNPOOL_AUTHOR_NAME", "Author name recorded on new functions"},
			{"FNPOOL_AUTHOR_EMAIL", "Author email recorded on new functions"},
		}},
		{"Languages", []envVarInfo{
			{"FNPOOL_LANGUAGES", "Preferred languages, comma-separated"},
		}},
		{"Logging", []envVarInfo{
			{"FNPOOL_LOG_FORMAT", "Log format (human, json)"},
			{"FNPOOL_LOG_LEVEL", "Log level (debug, info, warn, error)"},
		}},
	}

	for _, cat := range categories {
		fmt.Printf("%s:\n", cat.name)
		for _, v := range cat.vars {
			fmt.Printf("  %-24s %s\n", v.name, v.desc)
		}
		fmt.Println()
	}

	fmt.Println("Example usage:")
	fmt.Println("  FNPOOL_LANGUAGES=fra,eng fnpool show 4ac9...beef")
	fmt.Println("  FNPOOL_LOG_LEVEL=debug fnpool run 4ac9...beef")
	fmt.Println("  FNPOOL_ROOT=/srv/pool fnpool list")
}

func runConfigGet(cmd *cobra.Command, args []string) {
	root := mustGetPoolRoot()

	cfg, err := config.LoadConfig(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	switch args[0] {
	case "version":
		fmt.Println(cfg.Version)
	case "author.name":
		fmt.Println(cfg.Author.Name)
	case "author.email":
		fmt.Println(cfg.Author.Email)
	case "languages":
		fmt.Println(strings.Join(cfg.Languages, ","))
	case "logging.format":
		fmt.Println(cfg.Logging.Format)
	case "logging.level":
		fmt.Println(cfg.Logging.Level)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown setting %q\n", args[0])
		os.Exit(1)
	}
}

func runConfigSet(cmd *cobra.Command, args []string) {
	root := mustGetPoolRoot()
	path, value := args[0], args[1]

	// Edit the file contents, not the effective config, so FNPOOL_*
	// environment values never end up written to disk.
	cfg, err := config.LoadFileConfig(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := config.SetValue(cfg, path, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Save(root); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s\n", path)
}
