package mcp

import (
	"context"
	"testing"

	"github.com/gorewood/wasdoing/internal/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Open(t.TempDir())
	if err != nil {
		t.Fatalf("registry.Open() unexpected error: %v", err)
	}
	if _, err = reg.Create("migration"); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	return reg
}

func TestLogTool(t *testing.T) {
	reg := testRegistry(t)
	handler := handleLog(reg)

	_, out, err := handler(context.Background(), nil, LogInput{
		Kind:    "history",
		Content: "worked on the parser",
		Tags:    []string{"parser"},
	})
	if err != nil {
		t.Fatalf("log tool unexpected error: %v", err)
	}
	if out.Context != "migration" {
		t.Errorf("log tool context = %q, want migration", out.Context)
	}
	if out.Entry.ID == 0 {
		t.Error("log tool did not return an entry ID")
	}
	if out.Entry.Kind != "history" || out.Entry.Content != "worked on the parser" {
		t.Errorf("log tool entry = %+v", out.Entry)
	}
}

func TestLogTool_Validation(t *testing.T) {
	reg := testRegistry(t)
	handler := handleLog(reg)

	tests := []struct {
		name  string
		input LogInput
	}{
		{"bad kind", LogInput{Kind: "note", Content: "x"}},
		{"empty content", LogInput{Kind: "history", Content: "  "}},
		{"unknown context", LogInput{Kind: "history", Content: "x", Context: "missing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := handler(context.Background(), nil, tt.input); err == nil {
				t.Error("log tool expected error, got nil")
			}
		})
	}
}

func TestQueryTool(t *testing.T) {
	reg := testRegistry(t)
	logHandler := handleLog(reg)
	ctx := context.Background()

	seed := []LogInput{
		{Kind: "history", Content: "one", Tags: []string{"bugfix"}},
		{Kind: "history", Content: "two"},
		{Kind: "summary", Content: "rollup"},
	}
	for _, input := range seed {
		if _, _, err := logHandler(ctx, nil, input); err != nil {
			t.Fatalf("log tool unexpected error: %v", err)
		}
	}

	queryHandler := handleQuery(reg)

	_, out, err := queryHandler(ctx, nil, QueryInput{Kind: "summary"})
	if err != nil {
		t.Fatalf("query tool unexpected error: %v", err)
	}
	if out.Count != 1 || out.Entries[0].Content != "rollup" {
		t.Errorf("query kind=summary = %+v, want only rollup", out.Entries)
	}

	_, out, err = queryHandler(ctx, nil, QueryInput{Tags: []string{"bugfix"}})
	if err != nil {
		t.Fatalf("query tool unexpected error: %v", err)
	}
	if out.Count != 1 || out.Entries[0].Content != "one" {
		t.Errorf("query tags=bugfix = %+v, want only one", out.Entries)
	}

	_, out, err = queryHandler(ctx, nil, QueryInput{Last: 2})
	if err != nil {
		t.Fatalf("query tool unexpected error: %v", err)
	}
	if out.Count != 2 || out.Entries[0].Content != "two" || out.Entries[1].Content != "rollup" {
		t.Errorf("query last=2 = %+v, want the two most recent in log order", out.Entries)
	}
}

func TestQueryTool_BadTime(t *testing.T) {
	reg := testRegistry(t)
	handler := handleQuery(reg)

	if _, _, err := handler(context.Background(), nil, QueryInput{Since: "soonish"}); err == nil {
		t.Error("query tool expected error for bad since, got nil")
	}
}

func TestContextsTool(t *testing.T) {
	reg := testRegistry(t)
	if _, err := reg.Create("sideproject"); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	handler := handleContexts(reg)
	_, out, err := handler(context.Background(), nil, ContextsInput{})
	if err != nil {
		t.Fatalf("contexts tool unexpected error: %v", err)
	}
	if out.Active != "migration" {
		t.Errorf("contexts tool active = %q, want migration", out.Active)
	}
	if len(out.Contexts) != 2 {
		t.Fatalf("contexts tool returned %d contexts, want 2", len(out.Contexts))
	}
	if out.Contexts[0].Name != "migration" || out.Contexts[1].Name != "sideproject" {
		t.Errorf("contexts tool order = %q, %q, want sorted by name", out.Contexts[0].Name, out.Contexts[1].Name)
	}
}

func TestStatusTool(t *testing.T) {
	reg := testRegistry(t)
	logHandler := handleLog(reg)
	ctx := context.Background()

	for _, input := range []LogInput{
		{Kind: "history", Content: "one"},
		{Kind: "summary", Content: "rollup"},
	} {
		if _, _, err := logHandler(ctx, nil, input); err != nil {
			t.Fatalf("log tool unexpected error: %v", err)
		}
	}

	handler := handleStatus(reg)
	_, out, err := handler(ctx, nil, StatusInput{})
	if err != nil {
		t.Fatalf("status tool unexpected error: %v", err)
	}
	if out.Context != "migration" || !out.Active {
		t.Errorf("status tool context = %q active=%v", out.Context, out.Active)
	}
	if out.EntryCount != 2 || out.HistoryCount != 1 || out.SummaryCount != 1 {
		t.Errorf("status tool counts = %d/%d/%d, want 2/1/1", out.EntryCount, out.HistoryCount, out.SummaryCount)
	}
}

func TestParseToolTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty is zero", "", false},
		{"RFC 3339", "2026-01-15T09:00:00Z", false},
		{"date only", "2026-01-15", false},
		{"garbage", "soonish", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseToolTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseToolTime(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("parseToolTime(%q) unexpected error: %v", tt.input, err)
			}
			if tt.input == "" && !got.IsZero() {
				t.Errorf("parseToolTime(\"\") = %v, want zero time", got)
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	reg := testRegistry(t)
	server := NewServer("1.0.0-test", reg)
	if server == nil {
		t.Fatal("NewServer() = nil")
	}
}
