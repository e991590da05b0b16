package render

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*.md
var builtinFS embed.FS

// loadBuiltin loads a built-in template by name.
func loadBuiltin(name string) (*Template, error) {
	data, err := builtinFS.ReadFile("templates/" + name + ".md")
	if err != nil {
		return nil, fmt.Errorf("reading builtin template %s: %w", name, err)
	}
	tmpl, err := parseTemplate(string(data))
	if err != nil {
		return nil, err
	}
	tmpl.Source = "built-in"
	return tmpl, nil
}

// listBuiltins returns info for all built-in templates.
func listBuiltins() []TemplateInfo {
	dirEntries, err := builtinFS.ReadDir("templates")
	if err != nil {
		return nil
	}

	var templates []TemplateInfo
	for _, entry := range dirEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		data, err := builtinFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			continue
		}

		tmpl, err := parseTemplate(string(data))
		if err != nil {
			continue
		}

		templates = append(templates, TemplateInfo{
			Name:        strings.TrimSuffix(entry.Name(), ".md"),
			Description: tmpl.Description,
			Source:      "built-in",
		})
	}

	return templates
}
