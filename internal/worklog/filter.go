package worklog

import (
	"slices"
	"time"
)

// Filter narrows a List call. Zero values mean "no constraint".
type Filter struct {
	Kind  Kind
	Tags  []string
	Since time.Time
	Until time.Time
}

// whereClause builds the SQL WHERE fragment and arguments for the filter.
// Tag matching is not expressible against the JSON tags column here and is
// applied in Go after the query.
func (f *Filter) whereClause() (string, []any) {
	if f == nil {
		return "", nil
	}
	var (
		clauses []string
		args    []any
	)
	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	if !f.Until.IsZero() {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.Until.UTC().Format(timeLayout))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := clauses[0]
	for _, clause := range clauses[1:] {
		where += " AND " + clause
	}
	return where, args
}

// FilterByTags returns entries that have at least one matching tag.
// Uses OR logic: entries matching ANY of the specified tags are included.
func FilterByTags(entries []*Entry, tags []string) []*Entry {
	if len(tags) == 0 {
		return entries
	}
	var result []*Entry
	for _, entry := range entries {
		if entry.HasAnyTag(tags) {
			result = append(result, entry)
		}
	}
	return result
}

// FilterByKind returns entries of the given kind.
func FilterByKind(entries []*Entry, kind Kind) []*Entry {
	var result []*Entry
	for _, entry := range entries {
		if entry.Kind == kind {
			result = append(result, entry)
		}
	}
	return result
}

// FilterSince returns entries created at or after the cutoff.
func FilterSince(entries []*Entry, cutoff time.Time) []*Entry {
	var result []*Entry
	for _, entry := range entries {
		if !entry.CreatedAt.Before(cutoff) {
			result = append(result, entry)
		}
	}
	return result
}

// LastN returns the most recent n entries, preserving ascending order.
func LastN(entries []*Entry, n int) []*Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}

// TagSet returns the sorted set of all tags used by the entries.
func TagSet(entries []*Entry) []string {
	var tags []string
	for _, entry := range entries {
		for _, tag := range entry.Tags {
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	slices.Sort(tags)
	return tags
}
