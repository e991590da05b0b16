// Package main provides the entry point for the wasdoing CLI.
package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gorewood/wasdoing/internal/output"
	"github.com/gorewood/wasdoing/internal/worklog"
)

// statusResult holds the data for status output.
type statusResult struct {
	Context      string `json:"context"`
	Active       bool   `json:"active"`
	ConfigDir    string `json:"config_dir"`
	StorePath    string `json:"store_path"`
	OutputPath   string `json:"output_path"`
	OutputExists bool   `json:"output_exists"`
	EntryCount   int    `json:"entry_count"`
	HistoryCount int    `json:"history_count"`
	SummaryCount int    `json:"summary_count"`
}

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show journal state for a context",
		Long: `Show the current state of a context's journal.

Displays entry counts by kind, the store and output paths, and whether
the rendered document exists yet.

Examples:
  wasdoing status            # Status of the active context
  wasdoing status -c sideproject
  wasdoing status --json     # Structured output for scripting`,
		RunE: runStatus,
	}
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	reg, err := openRegistry()
	if err != nil {
		printer.Error(err)
		return err
	}

	resolved, err := reg.Resolve(contextFlag(cmd))
	if err != nil {
		err = mapRegistryError(err)
		printer.Error(err)
		return err
	}

	result := &statusResult{
		Context:    resolved.Name,
		Active:     resolved.Active,
		ConfigDir:  reg.Dir(),
		StorePath:  resolved.StorePath,
		OutputPath: resolved.OutputPath,
	}
	if _, statErr := os.Stat(resolved.OutputPath); statErr == nil {
		result.OutputExists = true
	}

	store, err := resolved.OpenStore()
	if err != nil {
		printer.Error(err)
		return err
	}
	defer func() { _ = store.Close() }()

	result.EntryCount, err = store.Count(cmd.Context())
	if err != nil {
		err = mapWorklogError(err)
		printer.Error(err)
		return err
	}

	histories, err := store.List(cmd.Context(), &worklog.Filter{Kind: worklog.KindHistory})
	if err != nil {
		err = mapWorklogError(err)
		printer.Error(err)
		return err
	}
	result.HistoryCount = len(histories)
	result.SummaryCount = result.EntryCount - result.HistoryCount

	if printer.IsJSON() {
		return printer.WriteJSON(result)
	}

	printHumanStatus(printer, result)
	return nil
}

// printHumanStatus outputs status in human-readable format.
func printHumanStatus(printer *output.Printer, status *statusResult) {
	printer.Section("Context")
	printer.KeyValue("Name", status.Context)
	printer.KeyValue("Active", formatBool(status.Active))
	printer.KeyValue("Config", status.ConfigDir)

	printer.Section("Journal")
	printer.KeyValue("Store", status.StorePath)
	printer.KeyValue("Entries", strconv.Itoa(status.EntryCount))
	printer.KeyValue("History", strconv.Itoa(status.HistoryCount))
	printer.KeyValue("Summaries", strconv.Itoa(status.SummaryCount))

	printer.Section("Document")
	printer.KeyValue("Output", status.OutputPath)
	printer.KeyValue("Rendered", formatBool(status.OutputExists))
}

// formatBool returns a human-readable boolean string.
func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
