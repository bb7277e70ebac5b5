// Package domain provides shared repository contracts and list types.
package domain

import (
	"time"
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search performs a case-insensitive match on name/code/barcode
	Search string

	// IncludeDeleted includes soft-deleted records
	IncludeDeleted bool

	// OrderBy specifies sorting (e.g., "name", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "name",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Period is a closed date range used by reporting filters.
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls within the period (inclusive).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && !t.After(p.To)
}
