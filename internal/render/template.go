// Package render turns a context's entries into a Markdown document.
//
// Templates are Markdown files with YAML frontmatter. Variables use a small
// closed grammar ({{name}}) evaluated against a typed render context; an
// unresolvable variable is a TemplateError, never silent output.
package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is a document template with metadata and content.
type Template struct {
	// Metadata from frontmatter
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Template content (after frontmatter)
	Content string `yaml:"-"`

	// Source location for display: "built-in", "global", or a path
	Source string `yaml:"-"`
}

// TemplateInfo provides template metadata for listing.
type TemplateInfo struct {
	Name        string
	Description string
	Source      string
}

// LoadTemplate finds and loads a template by name.
// Resolution order: the given template directories (first match wins),
// then built-in.
func LoadTemplate(name string, dirs ...string) (*Template, error) {
	for _, dir := range dirs {
		if tmpl, err := loadFromPath(dir, name); err == nil {
			tmpl.Source = "global"
			return tmpl, nil
		}
	}

	if tmpl, err := loadBuiltin(name); err == nil {
		return tmpl, nil
	}

	return nil, &TemplateError{Message: fmt.Sprintf("template %q not found", name)}
}

// ListTemplates returns all available templates across the given
// directories and the built-ins. Directory templates shadow built-ins of
// the same name.
func ListTemplates(dirs ...string) []TemplateInfo {
	seen := make(map[string]bool)
	var templates []TemplateInfo

	for _, dir := range dirs {
		infos, err := listFromPath(dir)
		if err != nil {
			continue // directory might not exist
		}
		for _, info := range infos {
			if !seen[info.Name] {
				seen[info.Name] = true
				templates = append(templates, info)
			}
		}
	}

	for _, info := range listBuiltins() {
		if !seen[info.Name] {
			templates = append(templates, info)
		}
	}

	return templates
}

// loadFromPath attempts to load a template from a directory.
func loadFromPath(dir, name string) (*Template, error) {
	if dir == "" {
		return nil, errors.New("no directory")
	}

	path := filepath.Join(dir, name+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", path, err)
	}

	return parseTemplate(string(data))
}

// listFromPath lists templates in a directory.
func listFromPath(dir string) ([]TemplateInfo, error) {
	if dir == "" {
		return nil, errors.New("no directory")
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var templates []TemplateInfo
	for _, entry := range dirEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
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
			Source:      "global",
		})
	}

	return templates, nil
}

// parseTemplate parses a template from raw content with YAML frontmatter.
func parseTemplate(raw string) (*Template, error) {
	frontmatter, content := splitFrontmatter(raw)

	var tmpl Template
	if frontmatter != "" {
		if err := yaml.Unmarshal([]byte(frontmatter), &tmpl); err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
	}

	tmpl.Content = strings.TrimSpace(content)
	return &tmpl, nil
}

// splitFrontmatter separates YAML frontmatter from content.
// Frontmatter is delimited by --- at the start and end.
func splitFrontmatter(raw string) (frontmatter, content string) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "---") {
		return "", raw
	}

	rest := raw[3:] // skip opening ---
	before, after, ok := strings.Cut(rest, "\n---")
	if !ok {
		return "", raw
	}

	return strings.TrimSpace(before), strings.TrimSpace(after)
}
