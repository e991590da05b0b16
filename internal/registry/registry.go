// Package registry maps context names to their entry stores and tracks
// which context is active. State lives in config.yaml under the wasdoing
// config directory; each context owns a directory with its database and
// rendered output.
package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/gorewood/wasdoing/internal/config"
	"github.com/gorewood/wasdoing/internal/worklog"
)

// maxNameLength bounds context names.
const maxNameLength = 64

// namePattern restricts context names to alphanumerics, hyphen, underscore,
// starting with an alphanumeric.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// dbFileName is the per-context SQLite database file.
const dbFileName = "database.db"

// ValidationError is returned for a bad or duplicate context name.
type ValidationError struct {
	Name    string
	Message string
	// Exists marks a duplicate of a known context rather than a
	// malformed name, so the CLI can report it as a conflict.
	Exists bool
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("context %q: %s", e.Name, e.Message)
}

// AsValidation checks if err is a ValidationError and extracts it.
func AsValidation(err error, target **ValidationError) bool {
	return errors.As(err, target)
}

// NotFoundError is returned when a named context does not exist.
type NotFoundError struct {
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Name == "" {
		return "no active context; create one with 'wasdoing context new <name>'"
	}
	return fmt.Sprintf("context not found: %s", e.Name)
}

// AsNotFound checks if err is a NotFoundError and extracts it.
func AsNotFound(err error, target **NotFoundError) bool {
	return errors.As(err, target)
}

// Context is a named, isolated journal scope with its own entry store and
// output target.
type Context struct {
	Name       string
	CreatedAt  time.Time
	StorePath  string
	OutputPath string
	Active     bool
}

// OpenStore opens the context's entry store.
func (c *Context) OpenStore() (*worklog.Store, error) {
	return worklog.Open(c.StorePath)
}

// Registry provides create/switch/list/resolve over known contexts.
// It is an explicit value handed to each command rather than process-wide
// state, so tests and concurrent callers stay deterministic.
type Registry struct {
	dir string
	cfg *config.Config
}

// Open loads the registry state from the given config directory.
func Open(dir string) (*Registry, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	return &Registry{dir: dir, cfg: cfg}, nil
}

// Dir returns the config directory backing this registry.
func (r *Registry) Dir() string {
	return r.dir
}

// Config exposes the loaded settings.
func (r *Registry) Config() *config.Config {
	return r.cfg
}

// ActiveName returns the active context name, or "" if none.
func (r *Registry) ActiveName() string {
	return r.cfg.ActiveContext
}

// ValidateName checks a context name against the naming pattern.
func ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Name: name, Message: "name cannot be empty"}
	}
	if len(name) > maxNameLength {
		return &ValidationError{Name: name, Message: fmt.Sprintf("name too long (max %d characters)", maxNameLength)}
	}
	if !namePattern.MatchString(name) {
		return &ValidationError{Name: name, Message: "name may only contain letters, numbers, hyphens and underscores"}
	}
	return nil
}

// Create provisions a new context: validates the name, creates an empty
// entry store, records it in the registry, and makes it active if no
// context was active before. Fails with a ValidationError on a bad or
// duplicate name; the existing context is left untouched.
func (r *Registry) Create(name string) (*Context, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if r.cfg.FindContext(name) != nil {
		return nil, &ValidationError{Name: name, Message: "already exists", Exists: true}
	}

	entry := config.ContextEntry{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	// Provision the empty store up front so the context is usable (and
	// watchable) before its first entry.
	ctx := r.contextFor(entry)
	store, err := ctx.OpenStore()
	if err != nil {
		return nil, err
	}
	stampErr := store.SetMeta(context.Background(), "context_name", name)
	if closeErr := store.Close(); stampErr == nil {
		stampErr = closeErr
	}
	if stampErr != nil {
		return nil, stampErr
	}

	r.cfg.Contexts = append(r.cfg.Contexts, entry)
	if r.cfg.ActiveContext == "" {
		r.cfg.ActiveContext = name
	}
	if err := r.cfg.Save(r.dir); err != nil {
		return nil, err
	}

	return r.contextFor(entry), nil
}

// Switch makes the named context active. Fails with a NotFoundError for an
// unknown name, leaving the previously active context unchanged.
func (r *Registry) Switch(name string) error {
	if r.cfg.FindContext(name) == nil {
		return &NotFoundError{Name: name}
	}
	r.cfg.ActiveContext = name
	return r.cfg.Save(r.dir)
}

// List returns all known contexts sorted by name, with the active one
// marked.
func (r *Registry) List() []*Context {
	contexts := make([]*Context, 0, len(r.cfg.Contexts))
	for _, entry := range r.cfg.Contexts {
		contexts = append(contexts, r.contextFor(entry))
	}
	sort.Slice(contexts, func(i, j int) bool {
		return contexts[i].Name < contexts[j].Name
	})
	return contexts
}

// Resolve returns the named context, or the active context when name is
// empty. Fails with a NotFoundError if the name is unknown, or if no name
// is given and no context is active.
func (r *Registry) Resolve(name string) (*Context, error) {
	if name == "" {
		name = r.cfg.ActiveContext
		if name == "" {
			return nil, &NotFoundError{}
		}
	}
	entry := r.cfg.FindContext(name)
	if entry == nil {
		return nil, &NotFoundError{Name: name}
	}
	return r.contextFor(*entry), nil
}

// SetOutput records a per-context output path override.
func (r *Registry) SetOutput(name, output string) error {
	entry := r.cfg.FindContext(name)
	if entry == nil {
		return &NotFoundError{Name: name}
	}
	entry.Output = output
	return r.cfg.Save(r.dir)
}

// contextFor builds the Context view of a registry entry.
func (r *Registry) contextFor(entry config.ContextEntry) *Context {
	contextDir := filepath.Join(config.ContextsDir(r.dir), entry.Name)
	output := entry.Output
	if output == "" {
		output = filepath.Join(contextDir, r.cfg.DefaultOutput)
	} else if !filepath.IsAbs(output) {
		output = filepath.Join(contextDir, output)
	}
	return &Context{
		Name:       entry.Name,
		CreatedAt:  entry.CreatedAt,
		StorePath:  filepath.Join(contextDir, dbFileName),
		OutputPath: output,
		Active:     entry.Name == r.cfg.ActiveContext,
	}
}
