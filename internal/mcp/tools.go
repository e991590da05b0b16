package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/wasdoing/internal/registry"
	"github.com/gorewood/wasdoing/internal/worklog"
)

// --- Shared types ---

// EntryOut is a journal entry shaped for tool output.
type EntryOut struct {
	ID        int64             `json:"id"                 jsonschema:"entry ID"`
	Kind      string            `json:"kind"               jsonschema:"entry kind (history or summary)"`
	Content   string            `json:"content"            jsonschema:"entry text"`
	CreatedAt string            `json:"created_at"         jsonschema:"entry creation timestamp (RFC 3339)"`
	Tags      []string          `json:"tags,omitempty"     jsonschema:"entry tags"`
	Metadata  map[string]string `json:"metadata,omitempty" jsonschema:"opaque extension metadata"`
}

func toEntryOut(entry *worklog.Entry) EntryOut {
	return EntryOut{
		ID:        entry.ID,
		Kind:      string(entry.Kind),
		Content:   entry.Content,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339Nano),
		Tags:      entry.Tags,
		Metadata:  entry.Metadata,
	}
}

// withStore resolves a context name and runs fn against its opened store.
func withStore(reg *registry.Registry, name string, fn func(*registry.Context, *worklog.Store) error) error {
	resolved, err := reg.Resolve(name)
	if err != nil {
		return err
	}
	store, err := resolved.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(resolved, store)
}

// parseToolTime accepts RFC 3339 timestamps or YYYY-MM-DD dates.
func parseToolTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q; use RFC 3339 or YYYY-MM-DD", value)
}

// --- Log tool ---

// LogInput is the input for the log tool.
type LogInput struct {
	Kind     string            `json:"kind"               jsonschema:"entry kind: history or summary"`
	Content  string            `json:"content"            jsonschema:"entry text, must be non-empty"`
	Tags     []string          `json:"tags,omitempty"     jsonschema:"optional tags for categorization"`
	Metadata map[string]string `json:"metadata,omitempty" jsonschema:"optional opaque key-value metadata"`
	Context  string            `json:"context,omitempty"  jsonschema:"context name (default: active context)"`
}

// LogOutput is the output for the log tool.
type LogOutput struct {
	Context string   `json:"context" jsonschema:"context the entry was appended to"`
	Entry   EntryOut `json:"entry"   jsonschema:"the created entry"`
}

func handleLog(reg *registry.Registry) mcp.ToolHandlerFor[LogInput, LogOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LogInput) (*mcp.CallToolResult, LogOutput, error) {
		kind, err := worklog.ParseKind(input.Kind)
		if err != nil {
			return nil, LogOutput{}, err
		}

		var out LogOutput
		err = withStore(reg, input.Context, func(resolved *registry.Context, store *worklog.Store) error {
			entry, appendErr := store.Append(ctx, kind, input.Content, input.Tags, input.Metadata)
			if appendErr != nil {
				return appendErr
			}
			out = LogOutput{Context: resolved.Name, Entry: toEntryOut(entry)}
			return nil
		})
		if err != nil {
			return nil, LogOutput{}, err
		}
		return nil, out, nil
	}
}

// --- Query tool ---

// QueryInput is the input for the query tool.
type QueryInput struct {
	Kind    string   `json:"kind,omitempty"    jsonschema:"filter by kind: history or summary"`
	Tags    []string `json:"tags,omitempty"    jsonschema:"filter by tags (any match)"`
	Since   string   `json:"since,omitempty"   jsonschema:"include entries at or after this time (RFC 3339 or YYYY-MM-DD)"`
	Until   string   `json:"until,omitempty"   jsonschema:"include entries at or before this time (RFC 3339 or YYYY-MM-DD)"`
	Last    int      `json:"last,omitempty"    jsonschema:"limit to the most recent N matching entries"`
	Context string   `json:"context,omitempty" jsonschema:"context name (default: active context)"`
}

// QueryOutput is the output for the query tool.
type QueryOutput struct {
	Context string     `json:"context" jsonschema:"context that was queried"`
	Count   int        `json:"count"   jsonschema:"number of returned entries"`
	Entries []EntryOut `json:"entries" jsonschema:"matching entries in log order"`
}

func handleQuery(reg *registry.Registry) mcp.ToolHandlerFor[QueryInput, QueryOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
		filter := &worklog.Filter{Tags: input.Tags}

		if input.Kind != "" {
			kind, err := worklog.ParseKind(input.Kind)
			if err != nil {
				return nil, QueryOutput{}, err
			}
			filter.Kind = kind
		}

		var err error
		if filter.Since, err = parseToolTime(input.Since); err != nil {
			return nil, QueryOutput{}, err
		}
		if filter.Until, err = parseToolTime(input.Until); err != nil {
			return nil, QueryOutput{}, err
		}

		var out QueryOutput
		err = withStore(reg, input.Context, func(resolved *registry.Context, store *worklog.Store) error {
			entries, listErr := store.List(ctx, filter)
			if listErr != nil {
				return listErr
			}
			entries = worklog.LastN(entries, input.Last)

			out = QueryOutput{
				Context: resolved.Name,
				Count:   len(entries),
				Entries: make([]EntryOut, 0, len(entries)),
			}
			for _, entry := range entries {
				out.Entries = append(out.Entries, toEntryOut(entry))
			}
			return nil
		})
		if err != nil {
			return nil, QueryOutput{}, err
		}
		return nil, out, nil
	}
}

// --- Contexts tool ---

// ContextsInput is the input for the contexts tool (no parameters needed).
type ContextsInput struct{}

// ContextOut describes one known context.
type ContextOut struct {
	Name      string `json:"name"       jsonschema:"context name"`
	Active    bool   `json:"active"     jsonschema:"whether this context is active"`
	CreatedAt string `json:"created_at" jsonschema:"context creation timestamp"`
	Output    string `json:"output"     jsonschema:"rendered document output path"`
}

// ContextsOutput is the output for the contexts tool.
type ContextsOutput struct {
	Active   string       `json:"active"   jsonschema:"name of the active context, empty if none"`
	Contexts []ContextOut `json:"contexts" jsonschema:"all known contexts sorted by name"`
}

func handleContexts(reg *registry.Registry) mcp.ToolHandlerFor[ContextsInput, ContextsOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ ContextsInput) (*mcp.CallToolResult, ContextsOutput, error) {
		out := ContextsOutput{Active: reg.ActiveName()}
		for _, resolved := range reg.List() {
			out.Contexts = append(out.Contexts, ContextOut{
				Name:      resolved.Name,
				Active:    resolved.Active,
				CreatedAt: resolved.CreatedAt.Format(time.RFC3339),
				Output:    resolved.OutputPath,
			})
		}
		return nil, out, nil
	}
}

// --- Status tool ---

// StatusInput is the input for the status tool.
type StatusInput struct {
	Context string `json:"context,omitempty" jsonschema:"context name (default: active context)"`
}

// StatusOutput is the output for the status tool.
type StatusOutput struct {
	Context      string `json:"context"       jsonschema:"context name"`
	Active       bool   `json:"active"        jsonschema:"whether this context is active"`
	EntryCount   int    `json:"entry_count"   jsonschema:"total entries in the log"`
	HistoryCount int    `json:"history_count" jsonschema:"number of history entries"`
	SummaryCount int    `json:"summary_count" jsonschema:"number of summary entries"`
	StorePath    string `json:"store_path"    jsonschema:"database file path"`
	OutputPath   string `json:"output_path"   jsonschema:"rendered document path"`
}

func handleStatus(reg *registry.Registry) mcp.ToolHandlerFor[StatusInput, StatusOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
		var out StatusOutput
		err := withStore(reg, input.Context, func(resolved *registry.Context, store *worklog.Store) error {
			total, countErr := store.Count(ctx)
			if countErr != nil {
				return countErr
			}
			histories, listErr := store.List(ctx, &worklog.Filter{Kind: worklog.KindHistory})
			if listErr != nil {
				return listErr
			}
			out = StatusOutput{
				Context:      resolved.Name,
				Active:       resolved.Active,
				EntryCount:   total,
				HistoryCount: len(histories),
				SummaryCount: total - len(histories),
				StorePath:    resolved.StorePath,
				OutputPath:   resolved.OutputPath,
			}
			return nil
		})
		if err != nil {
			return nil, StatusOutput{}, err
		}
		return nil, out, nil
	}
}
