// Package main provides the entry point for the wasdoing CLI.
package main

import (
	"github.com/spf13/cobra"
)

// newOutputCmd creates the output command.
func newOutputCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "output <path>",
		Short: "Set a context's document output path",
		Long: `Set where a context's rendered document is written.

Relative paths are resolved against the context's directory; absolute
paths are used as-is. Affects export and watch.

Examples:
  wasdoing output weekly.md               # Inside the context directory
  wasdoing output ~/notes/work.md -c sideproject`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutput(cmd, args[0])
		},
	}
}

// runOutput records the output path override and reports the result.
func runOutput(cmd *cobra.Command, path string) error {
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

	if err := reg.SetOutput(resolved.Name, path); err != nil {
		err = mapRegistryError(err)
		printer.Error(err)
		return err
	}

	// Re-resolve so the reported path reflects context-relative handling.
	updated, err := reg.Resolve(resolved.Name)
	if err != nil {
		err = mapRegistryError(err)
		printer.Error(err)
		return err
	}

	return printer.Success(map[string]any{
		"message": "Output for " + updated.Name + " set to " + updated.OutputPath,
		"context": updated.Name,
		"output":  updated.OutputPath,
	})
}
