// Package main provides the entry point for the wasdoing CLI.
package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/wasdoing/internal/output"
	"github.com/gorewood/wasdoing/internal/registry"
	"github.com/gorewood/wasdoing/internal/worklog"
)

// newHistoryCmd creates the history command.
func newHistoryCmd() *cobra.Command {
	return newAppendCmd(worklog.KindHistory, "history <text>",
		"Add a history entry (a granular note of work performed)",
		`Add a history entry to the active context's journal.

History entries are granular, timestamped notes of work as it happens.

Examples:
  wasdoing history "Started on the login timeout bug"
  wasdoing history "Bisected to commit abc123" --tag debugging
  wasdoing history "Deployed fix" --tag deploy --meta ticket=PROJ-42`)
}

// newSummaryCmd creates the summary command.
func newSummaryCmd() *cobra.Command {
	return newAppendCmd(worklog.KindSummary, "summary <text>",
		"Add a summary entry (a higher-level rollup)",
		`Add a summary entry to the active context's journal.

Summary entries are coarser-grained rollups of a work session or day.

Examples:
  wasdoing summary "Fixed login timeouts; root cause was connection pooling"
  wasdoing summary "Week 12: migration complete" --tag milestone`)
}

// newAppendCmd builds an entry-appending command for one kind.
func newAppendCmd(kind worklog.Kind, use, short, long string) *cobra.Command {
	var (
		tags  []string
		metas []string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppend(cmd, kind, args[0], tags, metas)
		},
	}

	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tags for categorization (repeatable)")
	cmd.Flags().StringArrayVar(&metas, "meta", nil, "Metadata as key=value (repeatable)")

	return cmd
}

// runAppend appends one entry to the resolved context's store.
func runAppend(cmd *cobra.Command, kind worklog.Kind, content string, tags, metas []string) error {
	printer := newPrinter(cmd)

	metadata, err := parseMetaPairs(metas)
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

	entry, err := store.Append(cmd.Context(), kind, content, tags, metadata)
	if err != nil {
		err = mapWorklogError(err)
		printer.Error(err)
		return err
	}

	return printer.Success(map[string]any{
		"message": "Added " + string(kind) + " entry to " + resolved.Name,
		"id":      entry.ID,
		"context": resolved.Name,
	})
}

// parseMetaPairs converts key=value flags into a metadata map.
func parseMetaPairs(metas []string) (map[string]string, error) {
	if len(metas) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(metas))
	for _, pair := range metas {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, output.NewUserError("--meta must be key=value, got: " + pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}

// mapWorklogError attaches CLI exit codes to store errors.
func mapWorklogError(err error) error {
	var validationErr *worklog.ValidationError
	if worklog.AsValidationError(err, &validationErr) {
		return output.NewUserError(validationErr.Error())
	}
	var storageErr *worklog.StorageError
	if worklog.AsStorageError(err, &storageErr) {
		return output.NewSystemErrorWithCause(storageErr.Error(), storageErr)
	}
	var notFoundErr *registry.NotFoundError
	if registry.AsNotFound(err, &notFoundErr) {
		return output.NewUserError(notFoundErr.Error())
	}
	return err
}
