package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"fnpool/internal/remote"
)

var (
	remoteAddFormat  string
	remoteListFormat string
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage remote pools",
	Long:  "Register, remove, and list the remote pools this pool can push to and pull from.",
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Register a remote pool",
	Long: `Register another pool's root directory under a name. The name is what
push and pull refer to; the path must point at an existing directory.

Examples:
  fnpool remote add shared /mnt/team/pool
  fnpool remote add backup ../pool-backup`,
	Args: cobra.ExactArgs(2),
	Run:  runRemoteAdd,
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a remote pool",
	Args:  cobra.ExactArgs(1),
	Run:   runRemoteRemove,
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured remotes",
	Args:  cobra.NoArgs,
	Run:   runRemoteList,
}

func init() {
	remoteAddCmd.Flags().StringVar(&remoteAddFormat, "format", "human", "Output format (json, yaml, human)")
	remoteListCmd.Flags().StringVar(&remoteListFormat, "format", "human", "Output format (json, yaml, human)")

	remoteCmd.AddCommand(remoteAddCmd)
	remoteCmd.AddCommand(remoteRemoveCmd)
	remoteCmd.AddCommand(remoteListCmd)
	rootCmd.AddCommand(remoteCmd)
}

// RemoteCLI is a registry entry in output form. The registry type
// carries toml tags only, so the CLI shape is declared here.
type RemoteCLI struct {
	UID     string    `json:"uid"`
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	AddedAt time.Time `json:"addedAt"`
}

// RemoteResponseCLI reports one newly registered remote.
type RemoteResponseCLI struct {
	Remote RemoteCLI `json:"remote"`
}

// RemoteListResponseCLI lists the configured remotes.
type RemoteListResponseCLI struct {
	Total   int         `json:"total"`
	Remotes []RemoteCLI `json:"remotes"`
}

func toRemoteCLI(rem *remote.Remote) RemoteCLI {
	return RemoteCLI{
		UID:     rem.UID,
		Name:    rem.Name,
		Path:    rem.Path,
		AddedAt: rem.AddedAt,
	}
}

func runRemoteAdd(cmd *cobra.Command, args []string) {
	root := mustGetPoolRoot()
	name, path := args[0], args[1]

	abs, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: %s is not a directory\n", abs)
		os.Exit(1)
	}

	reg, err := remote.LoadRegistry(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading remotes: %v\n", err)
		os.Exit(1)
	}
	rem, err := reg.Add(name, abs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := reg.Save(root); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving remotes: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(&RemoteResponseCLI{Remote: toRemoteCLI(rem)}, OutputFormat(remoteAddFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func runRemoteRemove(cmd *cobra.Command, args []string) {
	root := mustGetPoolRoot()

	reg, err := remote.LoadRegistry(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading remotes: %v\n", err)
		os.Exit(1)
	}
	if err := reg.Remove(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := reg.Save(root); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving remotes: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Removed remote %q\n", args[0])
}

func runRemoteList(cmd *cobra.Command, args []string) {
	root := mustGetPoolRoot()

	reg, err := remote.LoadRegistry(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading remotes: %v\n", err)
		os.Exit(1)
	}

	resp := &RemoteListResponseCLI{Total: len(reg.Remotes)}
	for i := range reg.Remotes {
		resp.Remotes = append(resp.Remotes, toRemoteCLI(&reg.Remotes[i]))
	}

	output, err := FormatResponse(resp, OutputFormat(remoteListFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}
