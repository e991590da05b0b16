// Package worklog provides the entry schema, validation, and SQLite-backed
// storage for wasdoing work journals.
package worklog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind identifies the type of a journal entry.
type Kind string

// The two entry kinds. History entries are granular notes of work performed;
// summary entries are coarser-grained rollups.
const (
	KindHistory Kind = "history"
	KindSummary Kind = "summary"
)

// ParseKind converts a string into a Kind.
// Returns a ValidationError for anything other than "history" or "summary".
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindHistory, KindSummary:
		return Kind(s), nil
	}
	return "", &ValidationError{
		Fields:  []string{"kind"},
		Message: fmt.Sprintf("invalid entry kind %q (want history or summary)", s),
	}
}

// Entry represents one immutable journal entry.
// Entries are append-only: once written they are never modified or deleted.
type Entry struct {
	ID        int64             `json:"id"`
	Kind      Kind              `json:"kind"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Tags      []string          `json:"tags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ValidationError is returned when entry validation fails.
type ValidationError struct {
	Fields  []string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// AsValidationError checks if err is a ValidationError and extracts it.
func AsValidationError(err error, target **ValidationError) bool {
	return errors.As(err, target)
}

// StorageError is returned when the underlying store fails.
// Transient errors (lock contention) are retried by the store before
// being surfaced; by the time a caller sees one, retries are exhausted.
type StorageError struct {
	Op        string
	Transient bool
	Err       error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/errors.As support.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// AsStorageError checks if err is a StorageError and extracts it.
func AsStorageError(err error, target **StorageError) bool {
	return errors.As(err, target)
}

// validateAppend checks the inputs to Store.Append.
func validateAppend(kind Kind, content string) error {
	var fields []string
	if kind != KindHistory && kind != KindSummary {
		fields = append(fields, "kind")
	}
	if strings.TrimSpace(content) == "" {
		fields = append(fields, "content")
	}
	if len(fields) > 0 {
		return &ValidationError{
			Fields:  fields,
			Message: "invalid entry",
		}
	}
	return nil
}

// normalizeTags sorts and deduplicates tags. Tag order carries no meaning,
// so a canonical order keeps stored rows and rendered output stable.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return out
}

// HasAnyTag checks if the entry has any of the specified tags.
func (e *Entry) HasAnyTag(tags []string) bool {
	for _, tag := range e.Tags {
		if slices.Contains(tags, tag) {
			return true
		}
	}
	return false
}
