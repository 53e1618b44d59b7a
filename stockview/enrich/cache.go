// Package enrich resolves foreign-key ids embedded in records to display
// values through secondary collaborator lookups. A Cache memoizes the
// resolutions for the life of a view session so the same id is never
// fetched twice, and interleaved resolution requests for one id collapse
// into a single collaborator call.
package enrich

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/invlab/stockview/stockview/metrics"
	"github.com/invlab/stockview/stockview/query"
	"github.com/invlab/stockview/types"
)

// State describes what the cache knows about one id.
type State int

const (
	// Unknown means the id has never been requested
	Unknown State = iota

	// Loading means a resolution is in flight
	Loading

	// Resolved means the display value is available
	Resolved

	// NotFound means the collaborator reported no such record; distinct
	// from Loading, and cached so the id is not fetched again
	NotFound
)

// LoadingPlaceholder is the display value while a lookup is in flight.
const LoadingPlaceholder = "..."

// resolveConcurrency bounds parallel lookups per Resolve pass.
const resolveConcurrency = 4

// Options configures optional cache collaborators.
type Options struct {
	// Logger receives resolution failures; defaults to slog.Default()
	Logger *slog.Logger

	// Metrics receives per-lookup outcomes; defaults to NopRecorder
	Metrics metrics.Recorder
}

type entry struct {
	value    string
	notFound bool
}

// Cache memoizes foreign-key resolutions for a single referenced resource.
// Entries are keyed purely by the foreign id, never by row identity or list
// position, so a resolution arriving after the record set that requested it
// has already changed is still written to the right place. Entries persist
// for the cache's lifetime; there is no eviction.
type Cache struct {
	src      types.Source
	resource string
	display  string

	logger  *slog.Logger
	metrics metrics.Recorder

	flight singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry
	pending map[string]struct{}
}

// New returns an empty cache resolving ids against the given resource and
// reading the display field from each fetched record.
func New(src types.Source, resource, display string, opts Options) *Cache {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NopRecorder{}
	}
	return &Cache{
		src:      src,
		resource: resource,
		display:  display,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		entries:  make(map[string]entry),
		pending:  make(map[string]struct{}),
	}
}

// Resource returns the collaborator resource this cache resolves against.
func (c *Cache) Resource() string {
	return c.resource
}

// Resolve fetches every id not yet known to the cache and waits for those
// fetches to finish. Concurrent Resolve calls for the same id share one
// collaborator request. A transport failure leaves its id unresolved so a
// later pass can retry; only context cancellation is returned as an error.
func (c *Cache) Resolve(ctx context.Context, ids []string) error {
	missing := c.missing(ids)
	if len(missing) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for _, id := range missing {
		id := id
		g.Go(func() error {
			return c.resolveOne(ctx, id)
		})
	}
	return g.Wait()
}

// missing filters ids down to the unique, non-empty ones with no cached
// resolution, counting the rest as cache hits.
func (c *Cache) missing(ids []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := c.entries[id]; ok {
			c.metrics.ObserveResolution(c.resource, "hit")
			continue
		}
		out = append(out, id)
	}
	return out
}

func (c *Cache) resolveOne(ctx context.Context, id string) error {
	// the flight group guarantees at most one in-flight fetch per id;
	// duplicate callers block here and share the first caller's outcome
	_, err, _ := c.flight.Do(id, func() (interface{}, error) {
		c.setPending(id, true)
		defer c.setPending(id, false)

		rec, err := c.src.FetchByID(ctx, c.resource, id)
		switch {
		case errors.Is(err, types.ErrNotFound):
			c.store(id, entry{notFound: true})
			c.metrics.ObserveResolution(c.resource, "notfound")
			return nil, nil
		case err != nil:
			// not cached: the next pass over this id retries
			c.logger.Warn("enrichment lookup failed",
				"resource", c.resource, "id", id, "error", err)
			c.metrics.ObserveResolution(c.resource, "failure")
			return nil, err
		}

		value, _ := rec.Get(c.display)
		c.store(id, entry{value: query.AsString(value)})
		c.metrics.ObserveResolution(c.resource, "resolved")
		return nil, nil
	})

	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	return nil
}

func (c *Cache) store(id string, e entry) {
	c.mu.Lock()
	c.entries[id] = e
	c.mu.Unlock()
}

func (c *Cache) setPending(id string, on bool) {
	c.mu.Lock()
	if on {
		c.pending[id] = struct{}{}
	} else {
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

// State reports what the cache knows about id. Reads never block on
// in-flight resolutions.
func (c *Cache) State(id string) State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[id]; ok {
		if e.notFound {
			return NotFound
		}
		return Resolved
	}
	if _, ok := c.pending[id]; ok {
		return Loading
	}
	return Unknown
}

// Display returns the value to render for id: the resolved display string,
// a loading placeholder while unresolved, or the raw id itself when the
// collaborator has no matching record. An empty id renders empty.
func (c *Cache) Display(id string) string {
	if id == "" {
		return ""
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[id]; ok {
		if e.notFound {
			return id
		}
		return e.value
	}
	return LoadingPlaceholder
}

// Len returns the number of cached resolutions, including not-found ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
