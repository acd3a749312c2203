package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "recipectl",
		Short: "Recipe content CLI - credential checks and recipe images",
		Long: `Recipe Content Command Line Interface

Checks emails, passwords and free-text input the same way the web client
does, and stores recipe images through the configured storage backend.

Storage, auth and audit settings are read from the environment (and .env),
using the same variables as the server.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewSanitizeCommand())
	rootCmd.AddCommand(NewImageCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// newLogger writes to stderr so command output stays machine readable
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
