// Package main provides the entry point for the wasdoing CLI.
package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/wasdoing/internal/output"
	"github.com/gorewood/wasdoing/internal/worklog"
)

// showFlags holds all flag values for the show command.
type showFlags struct {
	id    int64
	kind  string
	tags  []string
	since string
	until string
	last  int
}

// newShowCmd creates the show command.
func newShowCmd() *cobra.Command {
	var flags showFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List journal entries",
		Long: `List journal entries for a context, newest last.

Entries can be filtered by kind, tag, and time range.

Examples:
  wasdoing show                      # All entries in the active context
  wasdoing show --kind summary       # Only summary entries
  wasdoing show --since 7d           # Last week's entries
  wasdoing show --tag deploy --last 5
  wasdoing show -c sideproject --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShow(cmd, flags)
		},
	}

	cmd.Flags().Int64Var(&flags.id, "id", 0, "Show a single entry by ID")
	cmd.Flags().StringVar(&flags.kind, "kind", "", "Filter by kind: history or summary")
	cmd.Flags().StringArrayVar(&flags.tags, "tag", nil, "Filter by tag (repeatable, any match)")
	cmd.Flags().StringVar(&flags.since, "since", "", "Include entries since (duration like 7d, or date)")
	cmd.Flags().StringVar(&flags.until, "until", "", "Include entries until (duration like 24h, or date)")
	cmd.Flags().IntVar(&flags.last, "last", 0, "Limit to the most recent N matching entries")

	return cmd
}

// runShow executes the show command.
func runShow(cmd *cobra.Command, flags showFlags) error {
	printer := newPrinter(cmd)

	filter, err := buildFilter(flags)
	if err != nil {
		printer.Error(err)
		return err
	}

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

	store, err := resolved.OpenStore()
	if err != nil {
		printer.Error(err)
		return err
	}
	defer func() { _ = store.Close() }()

	if flags.id > 0 {
		return showSingle(cmd, printer, store, flags.id)
	}

	entries, err := store.List(cmd.Context(), filter)
	if err != nil {
		err = mapWorklogError(err)
		printer.Error(err)
		return err
	}
	entries = worklog.LastN(entries, flags.last)

	if printer.IsJSON() {
		return printer.WriteJSON(entries)
	}

	if len(entries) == 0 {
		printer.Print("No entries found in context %s.\n", resolved.Name)
		return nil
	}

	printer.Section(resolved.Name)
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(entry.Kind),
			entry.Content,
			strings.Join(entry.Tags, ","),
		})
	}
	printer.Table([]string{"WHEN", "KIND", "CONTENT", "TAGS"}, rows)
	return nil
}

// showSingle prints one entry looked up by ID.
func showSingle(cmd *cobra.Command, printer *output.Printer, store *worklog.Store, id int64) error {
	entry, err := store.Get(cmd.Context(), id)
	if err != nil {
		err = mapWorklogError(err)
		printer.Error(err)
		return err
	}
	if entry == nil {
		err = output.NewUserError(fmt.Sprintf("no entry with ID %d", id))
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(entry)
	}

	printer.Section(fmt.Sprintf("Entry %d", entry.ID))
	printer.KeyValue("Kind", string(entry.Kind))
	printer.KeyValue("Created", entry.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if len(entry.Tags) > 0 {
		printer.KeyValue("Tags", strings.Join(entry.Tags, ", "))
	}
	// Metadata keys sorted so the output is stable run to run.
	keys := make([]string, 0, len(entry.Metadata))
	for key := range entry.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		printer.KeyValue(key, entry.Metadata[key])
	}
	printer.Box("", entry.Content)
	return nil
}

// buildFilter converts show flags into a store filter.
func buildFilter(flags showFlags) (*worklog.Filter, error) {
	filter := &worklog.Filter{Tags: flags.tags}

	if flags.kind != "" {
		kind, err := worklog.ParseKind(flags.kind)
		if err != nil {
			return nil, output.NewUserError(err.Error())
		}
		filter.Kind = kind
	}

	if flags.since != "" {
		cutoff, err := parseSinceValue(flags.since)
		if err != nil {
			return nil, output.NewUserError(err.Error())
		}
		filter.Since = cutoff
	}

	if flags.until != "" {
		cutoff, err := parseUntilValue(flags.until)
		if err != nil {
			return nil, output.NewUserError(err.Error())
		}
		filter.Until = cutoff
	}

	return filter, nil
}
