package types

import (
	"context"
	"errors"
)

// ErrNotFound reports that a record does not exist at the collaborator.
// Callers match it with errors.Is.
var ErrNotFound = errors.New("record not found")

// Reserved Query.Filters keys understood by every collaborator: date-range
// bounds travel beside the exact-match field filters.
const (
	FilterDateFrom = "date_from"
	FilterDateTo   = "date_to"
)

// Query carries the fetch parameters understood by the collaborator. In
// client-paginated mode the core sends a single large page; in
// server-paginated mode it forwards the live page, search and filter state.
type Query struct {
	// Page is 1-based; 0 means the collaborator default
	Page int

	// PageSize bounds the returned items, 1..100 at the API
	PageSize int

	// Search is free-text matched server-side across the searchable columns
	Search string

	// Filters are exact-match constraints, field name to value
	Filters map[string]interface{}

	// Sort, when set, orders results server-side
	Sort *SortSpec
}

// NewQuery creates a Query with an empty filter map.
func NewQuery() Query {
	return Query{Filters: make(map[string]interface{})}
}

// PageResult is one fetched page plus the collaborator-reported total count
// across all pages.
type PageResult struct {
	Items []Record `json:"items"`
	Total int      `json:"total"`
}

// Source is the asynchronous collaborator boundary the view core consumes.
// The core is agnostic to transport and serialization; implementations wrap
// a REST API, a local data file, or a test double. All calls honor context
// cancellation.
type Source interface {
	// FetchPage returns one page of records for a resource
	FetchPage(ctx context.Context, resource string, q Query) (PageResult, error)

	// FetchByID returns a single record, or ErrNotFound
	FetchByID(ctx context.Context, resource, id string) (Record, error)

	// FetchLatestByType returns the most recently created record whose
	// tx_type matches, or ErrNotFound when none exists; used by the
	// reference allocator
	FetchLatestByType(ctx context.Context, resource, txType string) (Record, error)
}
