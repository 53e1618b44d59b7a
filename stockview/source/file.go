package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/invlab/stockview/stockview/query"
	"github.com/invlab/stockview/types"
)

// File locking parameters shared by load and save.
const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// fileData is the on-disk layout of a data file: records grouped by
// resource name, plus bookkeeping metadata.
type fileData struct {
	Resources map[string][]types.Record `json:"resources"`
	Metadata  fileMetadata              `json:"metadata"`
}

type fileMetadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileSource is a collaborator backed by a local JSON data file. It serves
// list queries by running the same pure query engines the client pipeline
// uses, so both sides of the boundary share one implementation of list
// semantics. It backs the CLI's default mode and the test fixtures; it is
// not a persistence layer for view state.
//
// Concurrency: an in-process RWMutex serializes access to the loaded data,
// and a cross-process flock on <path>.lock guards the file itself during
// loads and saves.
type FileSource struct {
	path        string
	schemas     map[string]*types.ViewSchema
	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock
	logger      *slog.Logger
	timeFunc    func() time.Time

	mu   sync.RWMutex
	data *fileData
}

// NewFileSource opens the data file at path, creating in-memory empty state
// when the file does not exist yet. Schemas give each resource its list
// semantics (searchable fields, field kinds, date-bound column); a resource
// without a schema still serves fetch-by-id and unfiltered pages.
func NewFileSource(path string, schemas []types.ViewSchema, opts ...FileSourceOption) (*FileSource, error) {
	s := &FileSource{
		path:     path,
		schemas:  make(map[string]*types.ViewSchema, len(schemas)),
		logger:   slog.Default(),
		timeFunc: time.Now,
		data: &fileData{
			Resources: make(map[string][]types.Record),
			Metadata: fileMetadata{
				Version:   "1.0",
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
		},
	}
	for i := range schemas {
		schema := schemas[i]
		s.schemas[schema.Entity] = &schema
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = OSFileSystem{}
	}
	if s.lockFactory == nil {
		s.lockFactory = FlockFactory{}
	}
	s.fileLock = s.lockFactory.New(path + ".lock")

	if err := s.loadWithLock(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load data file: %w", err)
	}
	return s, nil
}

// Path returns the data file path.
func (s *FileSource) Path() string {
	return s.path
}

// Reload re-reads the data file, replacing the in-memory state. The watcher
// calls this when the file changes on disk.
func (s *FileSource) Reload(ctx context.Context) error {
	return s.loadWithLock(ctx)
}

// FetchPage serves one page of a resource. With a registered schema the
// query's search text runs across the schema's searchable fields, equality
// filters match their named fields, and the reserved date_from/date_to
// filters bound the schema's first date field; sorting and windowing reuse
// the pure engines. Without a schema only exact filters and windowing apply.
func (s *FileSource) FetchPage(ctx context.Context, resource string, q types.Query) (types.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return types.PageResult{}, err
	}

	s.mu.RLock()
	records := s.data.Resources[resource]
	s.mu.RUnlock()

	schema := s.schemaFor(resource)
	eng := query.New(schema)

	matched := eng.Filter(records, s.filterSpec(schema, q))
	ordered := eng.Sort(matched, q.Sort)

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 || pageSize > types.MaxPageSize {
		pageSize = types.DefaultPageSize
	}

	return types.PageResult{
		Items: query.Window(ordered, page, pageSize),
		Total: len(ordered),
	}, nil
}

// FetchByID returns one record of a resource, or ErrNotFound.
func (s *FileSource) FetchByID(ctx context.Context, resource, id string) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return types.Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.data.Resources[resource] {
		if rec.ID == id {
			return rec.Clone(), nil
		}
	}
	return types.Record{}, fmt.Errorf("%s/%s: %w", resource, id, types.ErrNotFound)
}

// FetchLatestByType returns the most recently created record of a resource
// whose tx_type matches, or ErrNotFound when the type has none yet.
func (s *FileSource) FetchLatestByType(ctx context.Context, resource, txType string) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return types.Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *types.Record
	for i := range s.data.Resources[resource] {
		rec := &s.data.Resources[resource][i]
		v, _ := rec.Get("tx_type")
		if query.AsString(v) != txType {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return types.Record{}, fmt.Errorf("%s type %s: %w", resource, txType, types.ErrNotFound)
	}
	return latest.Clone(), nil
}

// Append adds a record to a resource and persists the file. A record with
// no id is assigned a fresh UUID; creation and update timestamps are set
// from the source's clock. The persisted record is returned.
func (s *FileSource) Append(ctx context.Context, resource string, rec types.Record) (types.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := s.timeFunc()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Fields == nil {
		rec.Fields = make(map[string]interface{})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Resources[resource] = append(s.data.Resources[resource], rec)
	if err := s.saveLocked(ctx); err != nil {
		// roll the record back so memory matches the file
		recs := s.data.Resources[resource]
		s.data.Resources[resource] = recs[:len(recs)-1]
		return types.Record{}, fmt.Errorf("failed to save: %w", err)
	}

	s.logger.Debug("record appended",
		"resource", resource, "id", rec.ID, "path", s.path)
	return rec, nil
}

// Count returns the number of records stored for a resource.
func (s *FileSource) Count(resource string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Resources[resource])
}

// Close removes the lock file. The data file itself is saved on every
// write, so there is nothing to flush.
func (s *FileSource) Close() error {
	_ = s.fs.Remove(s.path + ".lock")
	return nil
}

// schemaFor resolves the registered schema for a resource, or a bare one
// that treats every field as a string and searches nothing.
func (s *FileSource) schemaFor(resource string) *types.ViewSchema {
	if schema, ok := s.schemas[resource]; ok {
		return schema
	}
	return &types.ViewSchema{Entity: resource}
}

// filterSpec translates collaborator query parameters back into the clause
// form the filter engine evaluates. The reserved date_from/date_to keys
// bound the schema's first declared date field, matching how the original
// API applied range filters to its per-entity date column.
func (s *FileSource) filterSpec(schema *types.ViewSchema, q types.Query) types.FilterSpec {
	spec := types.FilterSpec{Search: q.Search}

	dateField := ""
	for _, f := range schema.Fields {
		if f.Kind == types.DateField {
			dateField = f.Name
			break
		}
	}

	for field, value := range q.Filters {
		operand := query.AsString(value)
		switch field {
		case types.FilterDateFrom:
			if dateField != "" {
				spec = spec.WithClause(dateField, types.DateFrom, operand)
			}
		case types.FilterDateTo:
			if dateField != "" {
				spec = spec.WithClause(dateField, types.DateTo, operand)
			}
		default:
			spec = spec.WithClause(field, types.Equals, operand)
		}
	}
	return spec
}

// acquireLock takes the cross-process file lock with retries.
func (s *FileSource) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

func (s *FileSource) releaseLock() error {
	return s.fileLock.Unlock()
}

// loadWithLock reads the file under the cross-process lock and swaps the
// in-memory state.
func (s *FileSource) loadWithLock(ctx context.Context) error {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	if err := s.acquireLock(lockCtx); err != nil {
		return err
	}
	defer func() { _ = s.releaseLock() }()

	if _, err := s.fs.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		// a missing file means an empty source, not an error
		return nil
	}

	raw, err := s.fs.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	if data.Resources == nil {
		data.Resources = make(map[string][]types.Record)
	}

	s.mu.Lock()
	s.data = &data
	s.mu.Unlock()
	return nil
}

// saveLocked writes the in-memory state atomically: temp file, then rename.
// Callers hold the in-process write lock; the cross-process lock is taken
// here.
func (s *FileSource) saveLocked(ctx context.Context) error {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	if err := s.acquireLock(lockCtx); err != nil {
		return err
	}
	defer func() { _ = s.releaseLock() }()

	s.data.Metadata.UpdatedAt = s.timeFunc()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := s.fs.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
