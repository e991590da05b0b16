// Package main provides the entry point for the wasdoing CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gorewood/wasdoing/internal/config"
	"github.com/gorewood/wasdoing/internal/envfile"
	"github.com/gorewood/wasdoing/internal/output"
	"github.com/gorewood/wasdoing/internal/registry"
)

// Build info set via ldflags at build time by goreleaser.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	flag := cmd.Flags().Lookup("json")
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup("json")
	}
	return flag != nil && flag.Value.String() == "true"
}

// contextFlag reads the persistent --context flag.
func contextFlag(cmd *cobra.Command) string {
	flag := cmd.Flags().Lookup("context")
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup("context")
	}
	if flag == nil {
		return ""
	}
	return flag.Value.String()
}

// newPrinter builds the printer for a command using its flag state.
func newPrinter(cmd *cobra.Command) *output.Printer {
	isTTY := output.IsTTY(cmd.OutOrStdout())
	if flag := cmd.Root().PersistentFlags().Lookup("color"); flag != nil {
		isTTY = output.ResolveColorMode(flag.Value.String(), isTTY)
	}
	return output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), isTTY).
		WithStderr(cmd.ErrOrStderr())
}

// openRegistry loads the context registry from the config directory.
func openRegistry() (*registry.Registry, error) {
	dir := config.Dir()
	if dir == "" {
		return nil, output.NewSystemError("cannot determine configuration directory")
	}
	return registry.Open(dir)
}

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	loadEnvFiles()
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// loadEnvFiles loads environment toggles (WASDOING_DEBUG and friends) from
// env files. Precedence: real environment, then
//  1. $CWD/.env.local (per-checkout, typically gitignored)
//  2. $CWD/.env (per-project)
//  3. <configdir>/env (global fallback)
func loadEnvFiles() {
	_ = envfile.Load(".env.local")
	_ = envfile.Load(".env")

	if dir := config.Dir(); dir != "" {
		_ = envfile.Load(filepath.Join(dir, "env"))
	}
}

// newRootCmd creates the root command for the wasdoing CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wasdoing",
		Short: "A work journal that writes your documentation for you",
		Long: `Was Doing - a personal work journal with per-context entry logs.

Record what you are working on as history entries (granular notes) and
summary entries (higher-level rollups). Entries land in a per-context
SQLite log and compile into a Markdown document, either on demand or
continuously with watch mode.

All commands support --json for structured output.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isJSONMode(cmd) {
				printer := output.NewPrinter(cmd.OutOrStdout(), true, false)
				err := output.NewUserError("no command specified. Run 'wasdoing --help' for usage")
				printer.Error(err)
				return err
			}
			return cmd.Help()
		},
	}

	// Persistent flags available to all subcommands.
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("color", "auto", "Color output: auto, always, never")
	cmd.PersistentFlags().StringP("context", "c", "", "Context to operate on (default: active context)")

	// Configure lipgloss for TTY detection
	lipgloss.SetHasDarkBackground(true)

	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "journal", Title: "Journal Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "query", Title: "Query Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "document", Title: "Document Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "admin", Title: "Admin Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command) {
	// Journal commands: history, summary
	addGroupedCommand(cmd, newHistoryCmd(), "journal")
	addGroupedCommand(cmd, newSummaryCmd(), "journal")

	// Query commands: show, status
	addGroupedCommand(cmd, newShowCmd(), "query")
	addGroupedCommand(cmd, newStatusCmd(), "query")

	// Document commands: export, watch, output, templates
	addGroupedCommand(cmd, newExportCmd(), "document")
	addGroupedCommand(cmd, newWatchCmd(), "document")
	addGroupedCommand(cmd, newOutputCmd(), "document")
	addGroupedCommand(cmd, newTemplatesCmd(), "document")

	// Admin commands: context, serve
	addGroupedCommand(cmd, newContextCmd(), "admin")
	addGroupedCommand(cmd, newServeCmd(), "admin")
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}
