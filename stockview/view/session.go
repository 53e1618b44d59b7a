package view

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/invlab/stockview/stockview/enrich"
	"github.com/invlab/stockview/stockview/metrics"
	"github.com/invlab/stockview/stockview/query"
	"github.com/invlab/stockview/types"
)

// Mode selects who windows the records for a session.
type Mode int

const (
	// ClientPaged fetches the whole working set once and derives filter,
	// sort and pages locally
	ClientPaged Mode = iota

	// ServerPaged forwards page, search and filter state to the
	// collaborator on every refresh and trusts its windowing
	ServerPaged
)

// Options configures a session. The zero value means client-paged, schema
// page size, default logger, no metrics.
type Options struct {
	Mode     Mode
	PageSize int
	Logger   *slog.Logger
	Metrics  metrics.Recorder
}

// Session owns the mutable view state of one list page: the raw working
// set, the active filter, sort and page, the composed model and the
// enrichment caches. A session runs in exactly one pagination mode for its
// whole life. State-changing calls recompose synchronously; only Refresh
// touches the network. Search input should be debounced by the caller
// (around 300ms) before reaching SetSearch, the session itself does not
// debounce.
type Session struct {
	src    types.Source
	schema *types.ViewSchema
	engine *query.Engine
	mode   Mode
	logger *slog.Logger
	rec    metrics.Recorder
	caches map[string]*enrich.Cache

	mu          sync.Mutex
	raw         []types.Record
	serverTotal int
	filter      types.FilterSpec
	sortSpec    *types.SortSpec
	page        int
	pageSize    int
	model       Model
	lastErr     error
	dirty       bool
	generation  uint64
	cancelFetch context.CancelFunc
}

// NewSession creates a session over src for the entity the schema
// describes. The first Refresh populates it; until then the model is the
// empty page 1 of 1.
func NewSession(src types.Source, schema *types.ViewSchema, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NopRecorder{}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = schema.EffectivePageSize()
	}

	var sortSpec *types.SortSpec
	if schema.DefaultSort != nil {
		spec := *schema.DefaultSort
		sortSpec = &spec
	}

	caches := make(map[string]*enrich.Cache, len(schema.Refs))
	for _, ref := range schema.Refs {
		caches[ref.Field] = enrich.New(src, ref.Resource, ref.Display, enrich.Options{
			Logger:  opts.Logger,
			Metrics: opts.Metrics,
		})
	}

	s := &Session{
		src:      src,
		schema:   schema,
		engine:   query.New(schema),
		mode:     opts.Mode,
		logger:   opts.Logger,
		rec:      opts.Metrics,
		caches:   caches,
		page:     1,
		pageSize: pageSize,
		sortSpec: sortSpec,
		dirty:    true,
	}
	s.model = Model{Rows: []types.Record{}, TotalPages: 1, Page: 1, PageSize: pageSize}
	return s
}

// Schema returns the view schema the session was built with.
func (s *Session) Schema() *types.ViewSchema {
	return s.schema
}

// Model returns the current composed view.
func (s *Session) Model() Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Err returns the error of the most recent refresh, nil after a success.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Page returns the active 1-based page number.
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Filter returns a copy of the active filter spec.
func (s *Session) Filter() types.FilterSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	clauses := make([]types.FilterClause, len(s.filter.Clauses))
	copy(clauses, s.filter.Clauses)
	return types.FilterSpec{Clauses: clauses, Search: s.filter.Search}
}

// Sort returns a copy of the active sort spec, nil when none is active.
func (s *Session) Sort() *types.SortSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sortSpec == nil {
		return nil
	}
	spec := *s.sortSpec
	return &spec
}

// NeedsRefresh reports whether local state has diverged from the last
// fetch: always true before the first Refresh, and in server mode after
// any page, search or filter change.
func (s *Session) NeedsRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Refresh fetches from the collaborator and recomposes the view. Each call
// supersedes any fetch still in flight: the superseded fetch is cancelled
// and its result, or error, is discarded when it eventually lands, so a
// slow early response can never clobber a faster later one. On failure the
// previous raw set and model stay in place and the error is returned
// wrapped in a *FetchError.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancelFetch = cancel
	q := s.buildQueryLocked()
	s.mu.Unlock()
	defer cancel()

	start := time.Now()
	res, err := s.src.FetchPage(fetchCtx, s.schema.Entity, q)
	elapsed := time.Since(start)
	s.rec.ObserveFetch(s.schema.Entity, err == nil, elapsed)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded fetch",
			"entity", s.schema.Entity, "generation", gen)
		return nil
	}
	s.cancelFetch = nil

	if err != nil {
		ferr := &FetchError{Resource: s.schema.Entity, Err: err}
		s.lastErr = ferr
		s.mu.Unlock()
		s.logger.Warn("fetch failed, keeping previous view",
			"entity", s.schema.Entity, "error", err)
		return ferr
	}

	s.lastErr = nil
	s.raw = res.Items
	s.serverTotal = res.Total
	s.dirty = false
	s.recomposeLocked()
	refIDs := s.collectRefIDsLocked()
	s.mu.Unlock()

	s.logger.Debug("view refreshed",
		"entity", s.schema.Entity, "records", len(res.Items),
		"elapsed", elapsed)

	if len(refIDs) > 0 {
		go s.resolveAll(ctx, refIDs)
	}
	return nil
}

// SetSearch replaces the search text. Any real change resets the page to 1
// so a stale page never carries into an unrelated result set.
func (s *Session) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter.Search == text {
		return
	}
	s.filter.Search = text
	s.page = 1
	s.afterFilterChangeLocked()
}

// SetClause sets the operand of the clause identified by field and
// predicate, appending the clause on first use. Any real change resets the
// page to 1.
func (s *Session) SetClause(field string, predicate types.PredicateKind, operand string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.filter.Clauses {
		if c.Field == field && c.Predicate == predicate {
			if c.Operand == operand {
				return
			}
			s.filter.Clauses[i].Operand = operand
			s.page = 1
			s.afterFilterChangeLocked()
			return
		}
	}
	if strings.TrimSpace(operand) == "" {
		// clearing a clause that was never set changes nothing
		return
	}
	s.filter = s.filter.WithClause(field, predicate, operand)
	s.page = 1
	s.afterFilterChangeLocked()
}

// SetFilter replaces the whole filter spec and resets the page to 1.
func (s *Session) SetFilter(spec types.FilterSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = spec
	s.page = 1
	s.afterFilterChangeLocked()
}

// SetSort applies the column-header toggle: the active field flips
// direction, a new field starts ascending. Sorting does not move the page.
func (s *Session) SetSort(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortSpec = types.NextSort(s.sortSpec, field)
	if s.mode == ServerPaged {
		s.dirty = true
	}
	s.recomposeLocked()
}

// SetPage moves to a page, clamped to the valid range. In server mode the
// new window arrives with the next Refresh.
func (s *Session) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	if tp := s.model.TotalPages; page > tp {
		page = tp
	}
	if page == s.page {
		return
	}
	s.page = page
	if s.mode == ServerPaged {
		s.dirty = true
	}
	s.recomposeLocked()
}

// Display resolves a reference field's id to its display value: the
// resolved string, a loading placeholder, or the id itself when the
// field is not a declared reference or the record was not found.
func (s *Session) Display(field, id string) string {
	if cache, ok := s.caches[field]; ok {
		return cache.Display(id)
	}
	return id
}

// RefState reports the enrichment state of one reference id.
func (s *Session) RefState(field, id string) enrich.State {
	if cache, ok := s.caches[field]; ok {
		return cache.State(id)
	}
	return enrich.Unknown
}

// ResolveRefs resolves every reference id in the current raw set and
// blocks until done. Refresh triggers the same resolution asynchronously;
// this is the deterministic variant for CLIs and tests.
func (s *Session) ResolveRefs(ctx context.Context) error {
	s.mu.Lock()
	refIDs := s.collectRefIDsLocked()
	s.mu.Unlock()

	for field, ids := range refIDs {
		if err := s.caches[field].Resolve(ctx, ids); err != nil {
			return err
		}
	}
	return nil
}

// afterFilterChangeLocked recomposes after a filter-state change. In
// server mode the collaborator owns the result set, so the change also
// marks the session dirty for the next Refresh.
func (s *Session) afterFilterChangeLocked() {
	if s.mode == ServerPaged {
		s.dirty = true
	}
	s.recomposeLocked()
}

// recomposeLocked rebuilds the model from current state. Client mode runs
// the full local pipeline; server mode wraps the rows as fetched and only
// reconciles the page count, refetching if its page vanished.
func (s *Session) recomposeLocked() {
	switch s.mode {
	case ServerPaged:
		s.model = ComposeServer(s.raw, s.serverTotal, s.page, s.pageSize)
		if s.page > s.model.TotalPages {
			s.page = 1
			s.model.Page = 1
			s.dirty = true
		}
	default:
		s.model = Compose(s.engine, s.raw, s.filter, s.sortSpec, types.PageState{
			Page:     s.page,
			PageSize: s.pageSize,
		})
		s.page = s.model.Page
	}
	s.rec.ObserveCompose(s.schema.Entity, len(s.model.Rows), s.model.TotalFiltered)
}

// buildQueryLocked translates session state into collaborator fetch
// parameters. Client mode pulls the working set in one large page and
// filters locally; server mode forwards the live page, search, equality
// clauses and date bounds. Contains clauses stay local-only, the search
// text is their server-side counterpart.
func (s *Session) buildQueryLocked() types.Query {
	q := types.NewQuery()
	if s.mode != ServerPaged {
		q.Page = 1
		q.PageSize = s.schema.EffectiveFetchSize()
		return q
	}

	q.Page = s.page
	q.PageSize = s.pageSize
	q.Search = strings.TrimSpace(s.filter.Search)
	for _, c := range s.filter.Clauses {
		if c.Inert() {
			continue
		}
		operand := strings.TrimSpace(c.Operand)
		switch c.Predicate {
		case types.Equals, types.EnumEquals:
			q.Filters[c.Field] = operand
		case types.DateFrom:
			q.Filters[types.FilterDateFrom] = operand
		case types.DateTo:
			q.Filters[types.FilterDateTo] = operand
		}
	}
	if s.sortSpec != nil {
		spec := *s.sortSpec
		q.Sort = &spec
	}
	return q
}

// collectRefIDsLocked gathers the foreign ids of every declared reference
// field across the whole raw set, independent of filter and page state.
func (s *Session) collectRefIDsLocked() map[string][]string {
	if len(s.schema.Refs) == 0 || len(s.raw) == 0 {
		return nil
	}
	byField := make(map[string][]string, len(s.schema.Refs))
	for _, ref := range s.schema.Refs {
		var ids []string
		for _, rec := range s.raw {
			v, ok := rec.Get(ref.Field)
			if !ok {
				continue
			}
			if id := query.AsString(v); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			byField[ref.Field] = ids
		}
	}
	return byField
}

func (s *Session) resolveAll(ctx context.Context, refIDs map[string][]string) {
	for field, ids := range refIDs {
		if err := s.caches[field].Resolve(ctx, ids); err != nil {
			s.logger.Debug("enrichment pass cut short",
				"entity", s.schema.Entity, "field", field, "error", err)
			return
		}
	}
}
