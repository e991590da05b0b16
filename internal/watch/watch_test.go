package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNew_Validation(t *testing.T) {
	render := func(context.Context) error { return nil }

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"valid", Options{StorePath: "/tmp/database.db", Render: render}, false},
		{"missing store path", Options{Render: render}, true},
		{"missing render", Options{StorePath: "/tmp/database.db"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if tt.wantErr && err == nil {
				t.Error("New() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("New() unexpected error: %v", err)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	w, err := New(Options{
		StorePath: "/tmp/database.db",
		Render:    func(context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if w.debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v, want 500ms", w.debounce)
	}
	if w.heartbeat != time.Second {
		t.Errorf("heartbeat = %v, want 1s", w.heartbeat)
	}
	if w.State() != StateIdle {
		t.Errorf("State() = %v, want idle", w.State())
	}
}

func TestWatcher_InitialRenderAndStop(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "database.db")
	if err := os.WriteFile(storePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}

	var renders atomic.Int32
	w, err := New(Options{
		StorePath: storePath,
		Debounce:  50 * time.Millisecond,
		Heartbeat: 10 * time.Second,
		Render: func(context.Context) error {
			renders.Add(1)
			return nil
		},
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Wait for the initial render on entry.
	waitFor(t, func() bool { return renders.Load() >= 1 })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() on cancel = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if w.State() != StateStopped {
		t.Errorf("State() after stop = %v, want stopped", w.State())
	}
}

func TestWatcher_DebounceCollapsesBurst(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "database.db")
	if err := os.WriteFile(storePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}

	var renders atomic.Int32
	w, err := New(Options{
		StorePath: storePath,
		Debounce:  200 * time.Millisecond,
		Heartbeat: 10 * time.Second,
		Render: func(context.Context) error {
			renders.Add(1)
			return nil
		},
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return renders.Load() >= 1 })
	waitFor(t, func() bool { return w.State() == StateWatching })
	initial := renders.Load()

	// A burst of writes inside the debounce window.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(storePath, []byte{byte(i)}, 0o644); err != nil {
			t.Fatalf("WriteFile() unexpected error: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	// Exactly one regeneration for the whole burst.
	waitFor(t, func() bool { return renders.Load() > initial })
	time.Sleep(500 * time.Millisecond)
	if got := renders.Load(); got != initial+1 {
		t.Errorf("renders after burst = %d, want %d", got, initial+1)
	}

	cancel()
	<-done
}

func TestWatcher_RenderErrorIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "database.db")
	if err := os.WriteFile(storePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}

	var renders atomic.Int32
	w, err := New(Options{
		StorePath: storePath,
		Debounce:  50 * time.Millisecond,
		Heartbeat: 10 * time.Second,
		Render: func(context.Context) error {
			renders.Add(1)
			return os.ErrPermission
		},
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return renders.Load() >= 1 })

	// The loop keeps watching after the failed render.
	if err := os.WriteFile(storePath, []byte("y"), 0o644); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}
	waitFor(t, func() bool { return renders.Load() >= 2 })

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil after cancel", err)
	}
}

func TestWatcher_StoreDirRemovedIsFatal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migration")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() unexpected error: %v", err)
	}
	storePath := filepath.Join(dir, "database.db")
	if err := os.WriteFile(storePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}

	w, err := New(Options{
		StorePath: storePath,
		Debounce:  10 * time.Second,
		Heartbeat: 30 * time.Millisecond,
		Render:    func(context.Context) error { return nil },
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return w.State() == StateWatching })

	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll() unexpected error: %v", err)
	}

	// Three consecutive heartbeat checks fail, then the loop gives up.
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run() = nil, want error after store directory removed")
		}
		if !strings.Contains(err.Error(), "inaccessible") {
			t.Errorf("Run() error = %v, want permanent inaccessibility", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after store directory removed")
	}

	if w.State() != StateStopped {
		t.Errorf("State() after fatal stop = %v, want stopped", w.State())
	}
}

func TestWatcher_Relevant(t *testing.T) {
	w, err := New(Options{
		StorePath: "/data/contexts/migration/database.db",
		Render:    func(context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"db write", fsnotify.Event{Name: "/data/contexts/migration/database.db", Op: fsnotify.Write}, true},
		{"wal write", fsnotify.Event{Name: "/data/contexts/migration/database.db-wal", Op: fsnotify.Write}, true},
		{"journal create", fsnotify.Event{Name: "/data/contexts/migration/database.db-journal", Op: fsnotify.Create}, true},
		{"unrelated file", fsnotify.Event{Name: "/data/contexts/migration/output.md", Op: fsnotify.Write}, false},
		{"db chmod only", fsnotify.Event{Name: "/data/contexts/migration/database.db", Op: fsnotify.Chmod}, false},
		{"db remove", fsnotify.Event{Name: "/data/contexts/migration/database.db", Op: fsnotify.Remove}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.event); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateWatching, "watching"},
		{StateRendering, "rendering"},
		{StateStopped, "stopped"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
