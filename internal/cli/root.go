// Package cli wires the readsync commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Version information set by main.
	Version = "dev"
	Commit  = "unknown"

	envFile string
)

// NewRootCommand builds the command tree. Running the root command without a
// subcommand performs a sync.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "readsync",
		Short: "Mirror WeRead reading state into Notion",
		Long: `readsync mirrors books, reading progress and per-day reading time from
WeRead into Notion databases. Every run is a single pass: books whose Notion
record already matches the bookshelf are skipped, everything else is created
or updated in place.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadEnvFile,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")

	syncCmd := newSyncCommand()
	root.AddCommand(syncCmd, newHistoryCommand(), newVersionCommand())

	root.RunE = syncCmd.RunE
	root.Flags().AddFlagSet(syncCmd.Flags())
	return root
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute(version, commit string) {
	Version = version
	Commit = commit

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

// loadEnvFile loads the dotenv file without overriding variables that are
// already set. A missing file is not an error.
func loadEnvFile(cmd *cobra.Command, _ []string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}
