// Package main provides the entry point for the wasdoing CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/gorewood/wasdoing/internal/render"
)

// newTemplatesCmd creates the templates command.
func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List available document templates",
		Long: `List document templates available for export and watch.

Templates resolve in order: .wasdoing/templates in the current directory,
the templates directory under the wasdoing config dir, then built-ins.
Earlier locations shadow later ones.

Examples:
  wasdoing templates
  wasdoing export --template weekly`,
		RunE: runTemplates,
	}
}

// runTemplates lists templates across all resolution locations.
func runTemplates(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	reg, err := openRegistry()
	if err != nil {
		printer.Error(err)
		return err
	}

	infos := render.ListTemplates(templateDirs(reg)...)

	if printer.IsJSON() {
		type templateRow struct {
			Name        string `json:"name"`
			Source      string `json:"source"`
			Description string `json:"description"`
		}
		rows := make([]templateRow, 0, len(infos))
		for _, info := range infos {
			rows = append(rows, templateRow{info.Name, info.Source, info.Description})
		}
		return printer.WriteJSON(rows)
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Name, info.Source, info.Description})
	}
	printer.Table([]string{"NAME", "SOURCE", "DESCRIPTION"}, rows)
	return nil
}
