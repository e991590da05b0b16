// Package watch regenerates a context's rendered document whenever its
// entry store changes on disk.
//
// Change notifications come from fsnotify on the store's directory (the
// database file plus its WAL/journal siblings). Events are debounced so a
// burst of writes triggers one regeneration. A heartbeat ticker keeps the
// loop responsive and verifies the store location is still reachable; it
// never triggers a render by itself.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// State is the watch loop's lifecycle state.
type State int32

// Watch loop states. The loop moves Idle -> Watching, bounces between
// Watching and Rendering on change events, and ends in Stopped.
const (
	StateIdle State = iota
	StateWatching
	StateRendering
	StateStopped
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	case StateRendering:
		return "rendering"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// maxMissedBeats is how many consecutive heartbeat checks may find the
// store location missing before the loop treats it as permanently
// inaccessible and stops.
const maxMissedBeats = 3

// RenderFunc regenerates the output document from the current store state.
type RenderFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// StorePath is the context's database file. Its directory is watched.
	StorePath string
	// Debounce is the window during which rapid change events collapse
	// into a single regeneration.
	Debounce time.Duration
	// Heartbeat is the liveness/accessibility check interval.
	Heartbeat time.Duration
	// Render is invoked after each (debounced) change. A failing render
	// is logged and the loop keeps watching.
	Render RenderFunc
	// Logger receives watch loop events. Defaults to the standard logrus
	// logger.
	Logger *logrus.Logger
}

// Watcher runs the regeneration loop for one context.
type Watcher struct {
	storePath string
	debounce  time.Duration
	heartbeat time.Duration
	render    RenderFunc
	log       *logrus.Logger

	state atomic.Int32
}

// New validates options and creates a Watcher in the Idle state.
func New(opts Options) (*Watcher, error) {
	if opts.StorePath == "" {
		return nil, errors.New("watch: store path required")
	}
	if opts.Render == nil {
		return nil, errors.New("watch: render function required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Watcher{
		storePath: opts.StorePath,
		debounce:  opts.Debounce,
		heartbeat: opts.Heartbeat,
		render:    opts.Render,
		log:       opts.Logger,
	}, nil
}

// State returns the loop's current state.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

func (w *Watcher) setState(s State) {
	w.state.Store(int32(s))
}

// Run watches the store until ctx is cancelled or the store location
// becomes permanently inaccessible. An in-flight render finishes before a
// cancelled Run returns. Returns nil on cancellation, an error on fatal
// store loss.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.storePath)

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() { _ = fsWatcher.Close() }()

	if err := fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	// Render once on entry so the document reflects the store even if
	// nothing changes while watching.
	w.renderOnce(ctx)

	w.setState(StateWatching)
	w.log.WithFields(logrus.Fields{"store": w.storePath, "state": w.State()}).Info("watching for changes")

	// Debounce timer, armed on the first relevant event of a burst.
	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	ticker := time.NewTicker(w.heartbeat)
	defer ticker.Stop()

	missedBeats := 0

	for {
		select {
		case <-ctx.Done():
			w.setState(StateStopped)
			w.log.WithField("state", w.State()).Info("watch stopped")
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				w.setState(StateStopped)
				return errors.New("file watcher closed unexpectedly")
			}
			if !w.relevant(event) {
				continue
			}
			w.log.WithField("event", event.String()).Debug("store change detected")
			// Collapse bursts: restart the window on every event.
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.debounce)

		case watchErr, ok := <-fsWatcher.Errors:
			if !ok {
				w.setState(StateStopped)
				return errors.New("file watcher closed unexpectedly")
			}
			w.log.WithError(watchErr).Warn("file watcher error")

		case <-debounce.C:
			w.renderOnce(ctx)
			w.setState(StateWatching)

		case <-ticker.C:
			// Heartbeat: liveness and store accessibility only, never a
			// render trigger.
			if _, statErr := os.Stat(dir); statErr != nil {
				missedBeats++
				w.log.WithError(statErr).WithField("missed", missedBeats).Warn("store location unreachable")
				if missedBeats >= maxMissedBeats {
					w.setState(StateStopped)
					return fmt.Errorf("store location permanently inaccessible: %s", dir)
				}
				continue
			}
			missedBeats = 0
		}
	}
}

// renderOnce invokes the render function, logging failure without leaving
// the loop.
func (w *Watcher) renderOnce(ctx context.Context) {
	w.setState(StateRendering)
	start := time.Now()
	if err := w.render(ctx); err != nil {
		w.log.WithError(err).Error("regeneration failed")
		return
	}
	w.log.WithField("took", time.Since(start).Round(time.Millisecond)).Info("document regenerated")
}

// relevant reports whether the event concerns the database file or one of
// its SQLite sidecar files (-wal, -shm, -journal).
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	base := filepath.Base(w.storePath)
	return strings.HasPrefix(filepath.Base(event.Name), base)
}
