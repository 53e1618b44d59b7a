// Package query implements the pure data-shaping stages of the view
// pipeline. It handles predicate filtering, free-text search, type-aware
// sorting and page windowing for records. Every stage derives a new
// sequence and never mutates its input, so the same inputs always produce
// the same view regardless of prior state.
package query

import (
	"github.com/invlab/stockview/types"
)

// Engine evaluates filter and sort specifications against records, using
// the field kinds and search columns declared in a view schema.
type Engine struct {
	schema *types.ViewSchema
}

// New returns an Engine bound to schema.
func New(schema *types.ViewSchema) *Engine {
	return &Engine{schema: schema}
}

// Schema returns the schema the engine was built with.
func (e *Engine) Schema() *types.ViewSchema {
	return e.schema
}

// fieldSpec resolves the declared spec for a field name. Unknown names
// compare as strings; the timestamp columns every record carries compare
// as dates even when a schema leaves them undeclared.
func (e *Engine) fieldSpec(name string) types.FieldSpec {
	if f, ok := e.schema.Field(name); ok {
		return f
	}
	switch name {
	case "created_at", "updated_at":
		return types.FieldSpec{Name: name, Kind: types.DateField}
	}
	return types.FieldSpec{Name: name, Kind: types.StringField}
}
