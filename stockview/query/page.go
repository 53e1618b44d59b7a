package query

import (
	"github.com/invlab/stockview/types"
)

// TotalPages derives the page count for a result set. An empty set still
// occupies one page, so "page 1 of 1" remains a valid display state for an
// empty list.
func TotalPages(totalCount, pageSize int) int {
	if pageSize <= 0 {
		pageSize = types.DefaultPageSize
	}
	if totalCount <= 0 {
		return 1
	}
	return (totalCount + pageSize - 1) / pageSize
}

// Window slices one page out of the full sequence. Pages are 1-based. The
// window is never clamped: a page outside the valid range yields an empty
// slice, and callers reconcile page state before asking for a window.
func Window(records []types.Record, page, pageSize int) []types.Record {
	if pageSize <= 0 {
		pageSize = types.DefaultPageSize
	}
	if page < 1 {
		return []types.Record{}
	}
	start := (page - 1) * pageSize
	if start >= len(records) {
		return []types.Record{}
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
