// Package view assembles the derived view of one list page. Compose is the
// pure recomputation at the heart of it; Session adds fetch orchestration,
// view state and enrichment on top, so every list page runs the same
// pipeline instead of forking its own.
package view

import (
	"github.com/invlab/stockview/stockview/query"
	"github.com/invlab/stockview/types"
)

// Model is the fully derived view handed to the presentation layer.
type Model struct {
	// Rows is the visible window after filter, sort and pagination
	Rows []types.Record

	// TotalFiltered counts the records remaining after filtering
	TotalFiltered int

	// TotalPages derives from TotalFiltered and PageSize, minimum 1
	TotalPages int

	// Page is the 1-based page the rows belong to
	Page int

	// PageSize is the window size the model was derived with
	PageSize int
}

// Compose derives the visible window from a raw record set, in the fixed
// order filter then sort then window. Pagination never runs before
// filtering. A page that fell outside the derived page range resets to 1,
// so the model never shows an out-of-range window.
func Compose(eng *query.Engine, raw []types.Record, filter types.FilterSpec, sortSpec *types.SortSpec, page types.PageState) Model {
	pageSize := page.PageSize
	if pageSize <= 0 {
		pageSize = eng.Schema().EffectivePageSize()
	}

	filtered := eng.Filter(raw, filter)
	ordered := eng.Sort(filtered, sortSpec)

	total := len(ordered)
	totalPages := query.TotalPages(total, pageSize)

	p := page.Page
	if p < 1 || p > totalPages {
		p = 1
	}

	return Model{
		Rows:          query.Window(ordered, p, pageSize),
		TotalFiltered: total,
		TotalPages:    totalPages,
		Page:          p,
		PageSize:      pageSize,
	}
}

// ComposeServer wraps one server-built page. Filtering and windowing
// already happened at the collaborator; only the page count derives
// locally, from the reported total.
func ComposeServer(items []types.Record, total, page, pageSize int) Model {
	if pageSize <= 0 {
		pageSize = types.DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	return Model{
		Rows:          items,
		TotalFiltered: total,
		TotalPages:    query.TotalPages(total, pageSize),
		Page:          page,
		PageSize:      pageSize,
	}
}
