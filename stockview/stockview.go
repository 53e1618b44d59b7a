// Package stockview is the façade over the data-view and allocation core:
// one parametrized pipeline for the console's list pages instead of a fork
// per entity. A ViewSchema describes an entity's columns, a Session runs
// filter, sort, pagination and enrichment over a Source, and an Allocator
// derives reference codes for new stock transactions.
//
// Schemas come from struct tags (SchemaOf) or YAML files (LoadSchemaFile);
// both are validated the same way. Sources wrap the REST API (HTTPSource)
// or a local JSON data file (FileSource).
package stockview

import (
	"fmt"
	"log/slog"

	"github.com/invlab/stockview/internal/validation"
	"github.com/invlab/stockview/stockview/refcode"
	"github.com/invlab/stockview/stockview/source"
	"github.com/invlab/stockview/stockview/view"
	"github.com/invlab/stockview/types"
)

// Core contract types, re-exported so library consumers import one package.
type (
	Record       = types.Record
	FieldSpec    = types.FieldSpec
	RefSpec      = types.RefSpec
	ViewSchema   = types.ViewSchema
	FilterClause = types.FilterClause
	FilterSpec   = types.FilterSpec
	SortSpec     = types.SortSpec
	PageState    = types.PageState
	Query        = types.Query
	PageResult   = types.PageResult
	Source       = types.Source

	Model   = view.Model
	Session = view.Session
	Options = view.Options
)

// ErrNotFound re-exports the collaborator's absence sentinel.
var ErrNotFound = types.ErrNotFound

// Pagination modes of a Session.
const (
	ClientPaged = view.ClientPaged
	ServerPaged = view.ServerPaged
)

// ValidateSchema checks a view schema for consistency.
func ValidateSchema(schema ViewSchema) error {
	return validation.Validate(schema)
}

// NewSession builds a view session for schema over src. The schema is
// validated first; list pages should not come up over a schema that can
// never compose correctly.
func NewSession(src Source, schema ViewSchema, opts Options) (*Session, error) {
	if err := validation.Validate(schema); err != nil {
		return nil, fmt.Errorf("invalid schema for %q: %w", schema.Entity, err)
	}
	return view.NewSession(src, &schema, opts), nil
}

// NewAllocator builds a reference allocator over src. An empty resource
// selects the stock transaction resource.
func NewAllocator(src Source, resource string, logger *slog.Logger) *refcode.Allocator {
	return refcode.NewAllocator(src, resource, logger)
}

// Open opens the JSON data file at path and builds a client-paged session
// for schema over it, the CLI's default arrangement. The returned source is
// shared; more sessions for other entities can be built on top of it.
func Open(path string, schema ViewSchema, opts Options) (*Session, *source.FileSource, error) {
	if err := validation.Validate(schema); err != nil {
		return nil, nil, fmt.Errorf("invalid schema for %q: %w", schema.Entity, err)
	}
	src, err := source.NewFileSource(path, []ViewSchema{schema})
	if err != nil {
		return nil, nil, err
	}
	sess := view.NewSession(src, &schema, opts)
	return sess, src, nil
}
