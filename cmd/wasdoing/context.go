// Package main provides the entry point for the wasdoing CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/gorewood/wasdoing/internal/output"
	"github.com/gorewood/wasdoing/internal/registry"
)

// newContextCmd creates the context command group.
func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage journal contexts",
		Long: `Manage journal contexts (isolated project/task scopes).

Each context owns its own entry log and rendered document. Exactly one
context is active at a time; entry commands default to it.

Examples:
  wasdoing context new migration     # Create (and activate, if first)
  wasdoing context switch sideproject
  wasdoing context list`,
	}

	cmd.AddCommand(newContextNewCmd())
	cmd.AddCommand(newContextSwitchCmd())
	cmd.AddCommand(newContextListCmd())

	return cmd
}

// newContextNewCmd creates the context new subcommand.
func newContextNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContextNew(cmd, args[0])
		},
	}
}

// runContextNew creates a context and reports the result.
func runContextNew(cmd *cobra.Command, name string) error {
	printer := newPrinter(cmd)

	reg, err := openRegistry()
	if err != nil {
		printer.Error(err)
		return err
	}

	created, err := reg.Create(name)
	if err != nil {
		err = mapRegistryError(err)
		printer.Error(err)
		return err
	}

	message := "Created context " + created.Name
	if created.Active {
		message += " (now active)"
	}
	return printer.Success(map[string]any{
		"message": message,
		"context": created.Name,
		"store":   created.StorePath,
		"active":  created.Active,
	})
}

// newContextSwitchCmd creates the context switch subcommand.
func newContextSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <name>",
		Short: "Switch the active context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContextSwitch(cmd, args[0])
		},
	}
}

// runContextSwitch switches the active context and reports the result.
func runContextSwitch(cmd *cobra.Command, name string) error {
	printer := newPrinter(cmd)

	reg, err := openRegistry()
	if err != nil {
		printer.Error(err)
		return err
	}

	if reg.ActiveName() == name {
		printer.Warn("context %s is already active", name)
	}

	if err := reg.Switch(name); err != nil {
		err = mapRegistryError(err)
		printer.Error(err)
		return err
	}

	return printer.Success(map[string]any{
		"message": "Switched to context " + name,
		"context": name,
	})
}

// newContextListCmd creates the context list subcommand.
func newContextListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known contexts",
		RunE:  runContextList,
	}
}

// runContextList lists all contexts, marking the active one.
func runContextList(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	reg, err := openRegistry()
	if err != nil {
		printer.Error(err)
		return err
	}

	contexts := reg.List()

	if printer.IsJSON() {
		type contextRow struct {
			Name      string `json:"name"`
			Active    bool   `json:"active"`
			CreatedAt string `json:"created_at"`
			Output    string `json:"output"`
		}
		rows := make([]contextRow, 0, len(contexts))
		for _, resolved := range contexts {
			rows = append(rows, contextRow{
				Name:      resolved.Name,
				Active:    resolved.Active,
				CreatedAt: resolved.CreatedAt.Format("2006-01-02"),
				Output:    resolved.OutputPath,
			})
		}
		return printer.WriteJSON(rows)
	}

	if len(contexts) == 0 {
		printer.Println("No contexts found. Create one with 'wasdoing context new <name>'.")
		return nil
	}

	rows := make([][]string, 0, len(contexts))
	for _, resolved := range contexts {
		marker := ""
		if resolved.Active {
			marker = "*"
		}
		rows = append(rows, []string{
			marker,
			resolved.Name,
			resolved.CreatedAt.Format("2006-01-02"),
			resolved.OutputPath,
		})
	}
	printer.Table([]string{"", "NAME", "CREATED", "OUTPUT"}, rows)
	return nil
}

// mapRegistryError attaches CLI exit codes to registry errors.
func mapRegistryError(err error) error {
	var validationErr *registry.ValidationError
	if registry.AsValidation(err, &validationErr) {
		if validationErr.Exists {
			return output.NewConflictError(validationErr.Error())
		}
		return output.NewUserError(validationErr.Error())
	}
	var notFoundErr *registry.NotFoundError
	if registry.AsNotFound(err, &notFoundErr) {
		return output.NewUserError(notFoundErr.Error())
	}
	return err
}
