package render

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorewood/wasdoing/internal/worklog"
)

// TemplateError is returned for an unresolvable template or variable.
// Rendering never touches the underlying entry log.
type TemplateError struct {
	Variable string
	Message  string
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("unknown template variable {{%s}}", e.Variable)
	}
	return e.Message
}

// AsTemplateError checks if err is a TemplateError and extracts it.
func AsTemplateError(err error, target **TemplateError) bool {
	return errors.As(err, target)
}

// Context provides the typed data a template is evaluated against.
// Generated is the reference time for the "generated", "today", and
// "this_week" variables; passing it explicitly keeps Render a pure
// function: the same entries, template, and reference time always yield
// byte-identical output.
type Context struct {
	ContextName string
	Generated   time.Time
	Entries     []*worklog.Entry
}

// varPattern matches {{variable}} tokens. The grammar is closed: only the
// names handled in resolveVar exist.
var varPattern = regexp.MustCompile(`\{\{([a-zA-Z_]+)\}\}`)

// Render substitutes all template variables and returns the document text.
// Fails with a TemplateError naming the first unknown variable.
func Render(tmpl *Template, rctx *Context) (string, error) {
	var renderErr error
	result := varPattern.ReplaceAllStringFunc(tmpl.Content, func(token string) string {
		if renderErr != nil {
			return token
		}
		name := varPattern.FindStringSubmatch(token)[1]
		value, err := resolveVar(name, rctx)
		if err != nil {
			renderErr = err
			return token
		}
		return value
	})
	if renderErr != nil {
		return "", renderErr
	}
	if !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result, nil
}

// resolveVar evaluates one variable of the closed grammar.
func resolveVar(name string, rctx *Context) (string, error) {
	switch name {
	case "context":
		return rctx.ContextName, nil
	case "generated":
		return rctx.Generated.UTC().Format("2006-01-02 15:04 MST"), nil
	case "entry_count":
		return strconv.Itoa(len(rctx.Entries)), nil
	case "entries":
		return formatEntries(rctx.Entries), nil
	case "history":
		return formatEntries(worklog.FilterByKind(rctx.Entries, worklog.KindHistory)), nil
	case "summaries":
		return formatEntries(worklog.FilterByKind(rctx.Entries, worklog.KindSummary)), nil
	case "today":
		return formatEntries(entriesToday(rctx)), nil
	case "this_week":
		return formatEntries(entriesThisWeek(rctx)), nil
	case "tags":
		return formatTagGroups(rctx.Entries), nil
	}
	return "", &TemplateError{Variable: name}
}

// entriesToday returns entries created on the same UTC day as the
// reference time.
func entriesToday(rctx *Context) []*worklog.Entry {
	day := rctx.Generated.UTC().Truncate(24 * time.Hour)
	var result []*worklog.Entry
	for _, entry := range rctx.Entries {
		if entry.CreatedAt.UTC().Truncate(24 * time.Hour).Equal(day) {
			result = append(result, entry)
		}
	}
	return result
}

// entriesThisWeek returns entries created since the start of the reference
// time's ISO week (Monday 00:00 UTC).
func entriesThisWeek(rctx *Context) []*worklog.Entry {
	now := rctx.Generated.UTC()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started last Monday
	}
	monday := now.Truncate(24 * time.Hour).AddDate(0, 0, -(weekday - 1))
	return worklog.FilterSince(rctx.Entries, monday)
}

// formatEntries renders entries as a Markdown list, one line per entry.
func formatEntries(entries []*worklog.Entry) string {
	if len(entries) == 0 {
		return "_No entries._"
	}

	var builder strings.Builder
	for i, entry := range entries {
		if i > 0 {
			builder.WriteString("\n")
		}
		writeEntryLine(&builder, entry)
	}
	return builder.String()
}

// writeEntryLine renders one entry as a list item.
func writeEntryLine(builder *strings.Builder, entry *worklog.Entry) {
	fmt.Fprintf(builder, "- **%s** [%s] %s",
		entry.CreatedAt.UTC().Format("2006-01-02 15:04"),
		entry.Kind,
		entry.Content,
	)
	if len(entry.Tags) > 0 {
		fmt.Fprintf(builder, " _(%s)_", strings.Join(entry.Tags, ", "))
	}
}

// formatTagGroups renders a subsection per tag with that tag's entries.
// Tags are sorted; entries keep their log order within each group.
func formatTagGroups(entries []*worklog.Entry) string {
	tags := worklog.TagSet(entries)
	if len(tags) == 0 {
		return "_No tagged entries._"
	}

	var builder strings.Builder
	for i, tag := range tags {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		fmt.Fprintf(&builder, "### %s\n\n", tag)
		builder.WriteString(formatEntries(worklog.FilterByTags(entries, []string{tag})))
	}
	return builder.String()
}
