package enrich_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/invlab/stockview/stockview/enrich"
	"github.com/invlab/stockview/types"
)

// fakeSource counts lookups and can be made to block or fail on demand.
type fakeSource struct {
	mu      sync.Mutex
	calls   int
	records map[string]types.Record
	err     error
	block   chan struct{}
}

func (f *fakeSource) FetchPage(ctx context.Context, resource string, q types.Query) (types.PageResult, error) {
	return types.PageResult{}, nil
}

func (f *fakeSource) FetchByID(ctx context.Context, resource, id string) (types.Record, error) {
	f.mu.Lock()
	f.calls++
	err := f.err
	rec, ok := f.records[id]
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return types.Record{}, ctx.Err()
		}
	}
	if err != nil {
		return types.Record{}, err
	}
	if !ok {
		return types.Record{}, types.ErrNotFound
	}
	return rec, nil
}

func (f *fakeSource) FetchLatestByType(ctx context.Context, resource, txType string) (types.Record, error) {
	return types.Record{}, types.ErrNotFound
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func userSource() *fakeSource {
	return &fakeSource{
		records: map[string]types.Record{
			"u1": {ID: "u1", Fields: map[string]interface{}{"full_name": "Dana Admin"}},
			"u2": {ID: "u2", Fields: map[string]interface{}{"full_name": "Lee Operator"}},
		},
	}
}

func TestResolveStoresDisplayValue(t *testing.T) {
	src := userSource()
	cache := enrich.New(src, "users", "full_name", enrich.Options{})

	if err := cache.Resolve(context.Background(), []string{"u1"}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if got := cache.State("u1"); got != enrich.Resolved {
		t.Errorf("expected Resolved, got %v", got)
	}
	if got := cache.Display("u1"); got != "Dana Admin" {
		t.Errorf("expected %q, got %q", "Dana Admin", got)
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 cached entry, got %d", cache.Len())
	}
}

func TestResolveFetchesEachIDOnce(t *testing.T) {
	src := userSource()
	cache := enrich.New(src, "users", "full_name", enrich.Options{})

	ids := []string{"u1", "u1", "u2", "u1", ""}
	if err := cache.Resolve(context.Background(), ids); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if err := cache.Resolve(context.Background(), ids); err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}

	if got := src.callCount(); got != 2 {
		t.Errorf("expected 2 lookups for 2 distinct ids, got %d", got)
	}
}

func TestConcurrentResolvesShareOneFetch(t *testing.T) {
	src := userSource()
	src.block = make(chan struct{})
	cache := enrich.New(src, "users", "full_name", enrich.Options{})

	const resolvers = 10
	var started, done sync.WaitGroup
	started.Add(resolvers)
	done.Add(resolvers)
	for i := 0; i < resolvers; i++ {
		go func() {
			started.Done()
			_ = cache.Resolve(context.Background(), []string{"u1"})
			done.Done()
		}()
	}

	started.Wait()
	// give every resolver a chance to reach the in-flight lookup
	time.Sleep(20 * time.Millisecond)
	close(src.block)
	done.Wait()

	if got := src.callCount(); got != 1 {
		t.Errorf("expected exactly 1 collaborator call, got %d", got)
	}
	if got := cache.Display("u1"); got != "Dana Admin" {
		t.Errorf("expected %q, got %q", "Dana Admin", got)
	}
}

func TestFailureLeavesIDRetryable(t *testing.T) {
	src := userSource()
	src.err = errors.New("connection refused")
	cache := enrich.New(src, "users", "full_name", enrich.Options{})

	if err := cache.Resolve(context.Background(), []string{"u1"}); err != nil {
		t.Fatalf("transport failure should not surface: %v", err)
	}
	if got := cache.State("u1"); got != enrich.Unknown {
		t.Errorf("expected Unknown after failure, got %v", got)
	}

	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()

	if err := cache.Resolve(context.Background(), []string{"u1"}); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got := cache.State("u1"); got != enrich.Resolved {
		t.Errorf("expected Resolved after retry, got %v", got)
	}
	if got := src.callCount(); got != 2 {
		t.Errorf("expected 2 lookups, got %d", got)
	}
}

func TestNotFoundIsCachedAndDistinct(t *testing.T) {
	src := userSource()
	cache := enrich.New(src, "users", "full_name", enrich.Options{})

	if err := cache.Resolve(context.Background(), []string{"ghost"}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if got := cache.State("ghost"); got != enrich.NotFound {
		t.Errorf("expected NotFound, got %v", got)
	}
	// the raw id is the deterministic fallback display
	if got := cache.Display("ghost"); got != "ghost" {
		t.Errorf("expected raw id, got %q", got)
	}

	// a not-found resolution is cached, not retried
	if err := cache.Resolve(context.Background(), []string{"ghost"}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got := src.callCount(); got != 1 {
		t.Errorf("expected 1 lookup, got %d", got)
	}
}

func TestLoadingStateWhileInFlight(t *testing.T) {
	src := userSource()
	src.block = make(chan struct{})
	cache := enrich.New(src, "users", "full_name", enrich.Options{})

	done := make(chan struct{})
	go func() {
		_ = cache.Resolve(context.Background(), []string{"u1"})
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for cache.State("u1") != enrich.Loading {
		if time.Now().After(deadline) {
			t.Fatal("lookup never entered the loading state")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := cache.Display("u1"); got != enrich.LoadingPlaceholder {
		t.Errorf("expected loading placeholder, got %q", got)
	}

	close(src.block)
	<-done

	if got := cache.State("u1"); got != enrich.Resolved {
		t.Errorf("expected Resolved, got %v", got)
	}
}

func TestDisplayBeforeAnyResolve(t *testing.T) {
	cache := enrich.New(userSource(), "users", "full_name", enrich.Options{})

	if got := cache.State("u1"); got != enrich.Unknown {
		t.Errorf("expected Unknown, got %v", got)
	}
	if got := cache.Display("u1"); got != enrich.LoadingPlaceholder {
		t.Errorf("expected placeholder for unresolved id, got %q", got)
	}
	if got := cache.Display(""); got != "" {
		t.Errorf("expected empty display for empty id, got %q", got)
	}
}

func TestResolveReturnsContextError(t *testing.T) {
	src := userSource()
	src.block = make(chan struct{})
	cache := enrich.New(src, "users", "full_name", enrich.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- cache.Resolve(ctx, []string{"u1"})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for cache.State("u1") != enrich.Loading {
		if time.Now().After(deadline) {
			t.Fatal("lookup never entered the loading state")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	// the id stays retryable after cancellation
	if got := cache.State("u1"); got != enrich.Unknown {
		t.Errorf("expected Unknown, got %v", got)
	}
}
