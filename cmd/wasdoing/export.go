// Package main provides the entry point for the wasdoing CLI.
package main

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gorewood/wasdoing/internal/export"
	"github.com/gorewood/wasdoing/internal/output"
	"github.com/gorewood/wasdoing/internal/registry"
	"github.com/gorewood/wasdoing/internal/render"
)

// exportFlags holds all flag values for the export command.
type exportFlags struct {
	format   string
	out      string
	template string
}

// newExportCmd creates the export command.
func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the journal to a document",
		Long: `Render a context's entries to a document.

The rendered Markdown is written to the context's configured output path
unless --out overrides it. HTML output converts the rendered Markdown;
JSON output dumps the raw entries.

Examples:
  wasdoing export                          # Markdown to the context output path
  wasdoing export --format html --out work.html
  wasdoing export --format json --out entries.json
  wasdoing export --template weekly`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "markdown", "Output format: markdown, html, or json")
	cmd.Flags().StringVar(&flags.out, "out", "", "Output path (default: the context's output path)")
	cmd.Flags().StringVar(&flags.template, "template", "", "Template name (default: from config)")

	return cmd
}

// runExport executes the export command.
func runExport(cmd *cobra.Command, flags exportFlags) error {
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

	outPath := flags.out
	if outPath == "" {
		outPath = resolved.OutputPath
		if ext := formatExtension(flags.format); ext != "" {
			outPath = strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ext
		}
	}

	switch flags.format {
	case "markdown", "":
		err = exportMarkdown(cmd.Context(), reg, resolved, flags.template, outPath)
	case "html":
		err = exportHTML(cmd.Context(), reg, resolved, flags.template, outPath)
	case "json":
		err = exportJSON(cmd.Context(), resolved, outPath)
	default:
		err = output.NewUserError("unknown format: " + flags.format + " (want markdown, html, or json)")
	}
	if err != nil {
		printer.Error(err)
		return err
	}

	return printer.Success(map[string]any{
		"message": "Exported " + resolved.Name + " to " + outPath,
		"context": resolved.Name,
		"format":  flags.format,
		"path":    outPath,
	})
}

// formatExtension returns the file extension to swap in when the output
// path is derived from the context default.
func formatExtension(format string) string {
	switch format {
	case "html":
		return ".html"
	case "json":
		return ".json"
	}
	return ""
}

// templateDirs returns the template resolution directories: project-local
// .wasdoing/templates first, then the global config dir. Built-ins are the
// final fallback inside LoadTemplate.
func templateDirs(reg *registry.Registry) []string {
	return []string{
		filepath.Join(".wasdoing", "templates"),
		filepath.Join(reg.Dir(), "templates"),
	}
}

// renderDocument loads the template, reads all entries, and renders the
// document text. Shared by export and watch.
func renderDocument(ctx context.Context, reg *registry.Registry, resolved *registry.Context, templateName string) (string, error) {
	if templateName == "" {
		templateName = reg.Config().Template
	}

	tmpl, err := render.LoadTemplate(templateName, templateDirs(reg)...)
	if err != nil {
		return "", mapRenderError(err)
	}

	store, err := resolved.OpenStore()
	if err != nil {
		return "", err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(ctx, nil)
	if err != nil {
		return "", mapWorklogError(err)
	}

	text, err := render.Render(tmpl, &render.Context{
		ContextName: resolved.Name,
		Generated:   time.Now(),
		Entries:     entries,
	})
	if err != nil {
		return "", mapRenderError(err)
	}
	return text, nil
}

// exportMarkdown renders and writes the Markdown document.
func exportMarkdown(ctx context.Context, reg *registry.Registry, resolved *registry.Context, templateName, outPath string) error {
	text, err := renderDocument(ctx, reg, resolved, templateName)
	if err != nil {
		return err
	}
	return export.WriteMarkdown(outPath, text)
}

// exportHTML renders Markdown and writes the converted HTML page.
func exportHTML(ctx context.Context, reg *registry.Registry, resolved *registry.Context, templateName, outPath string) error {
	text, err := renderDocument(ctx, reg, resolved, templateName)
	if err != nil {
		return err
	}
	return export.WriteHTML(outPath, resolved.Name, text)
}

// exportJSON writes the raw entries as JSON.
func exportJSON(ctx context.Context, resolved *registry.Context, outPath string) error {
	store, err := resolved.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(ctx, nil)
	if err != nil {
		return mapWorklogError(err)
	}
	return export.WriteJSON(outPath, entries)
}

// mapRenderError attaches CLI exit codes to render errors.
func mapRenderError(err error) error {
	var templateErr *render.TemplateError
	if render.AsTemplateError(err, &templateErr) {
		return output.NewUserError(templateErr.Error())
	}
	return err
}
