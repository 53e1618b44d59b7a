package query

import (
	"strings"

	"github.com/invlab/stockview/types"
)

// Filter returns the records matching every active clause of spec, in their
// input order. Filtering is pure: the same spec applied to the same records
// always yields the same subset, independent of prior state.
func (e *Engine) Filter(records []types.Record, spec types.FilterSpec) []types.Record {
	result := make([]types.Record, 0, len(records))
	for _, rec := range records {
		if e.Matches(rec, spec) {
			result = append(result, rec)
		}
	}
	return result
}

// Matches reports whether a single record satisfies spec. Active clauses
// combine with AND; the search text additionally has to hit at least one
// searchable field. Inert clauses do not constrain.
func (e *Engine) Matches(rec types.Record, spec types.FilterSpec) bool {
	for _, clause := range spec.Clauses {
		if clause.Inert() {
			continue
		}
		if !e.matchesClause(rec, clause) {
			return false
		}
	}
	if search := strings.TrimSpace(spec.Search); search != "" {
		return e.matchesSearch(rec, search)
	}
	return true
}

func (e *Engine) matchesClause(rec types.Record, clause types.FilterClause) bool {
	value, _ := rec.Get(clause.Field)

	switch clause.Predicate {
	case types.Contains:
		return strings.Contains(strings.ToLower(AsString(value)), strings.ToLower(clause.Operand))

	case types.Equals, types.EnumEquals:
		return strings.EqualFold(AsString(value), strings.TrimSpace(clause.Operand))

	case types.DateFrom:
		bound, ok := asTime(clause.Operand)
		if !ok {
			// an unparsable operand cannot bound anything
			return true
		}
		when, ok := asTime(value)
		if !ok {
			// a record without a date value never falls inside a bounded range
			return false
		}
		return !when.Before(bound)

	case types.DateTo:
		bound, ok := asTime(clause.Operand)
		if !ok {
			return true
		}
		when, ok := asTime(value)
		if !ok {
			return false
		}
		return !when.After(endOfDay(bound))
	}

	return true
}

// matchesSearch is a case-insensitive substring match across the schema's
// searchable fields. Any single hit keeps the record.
func (e *Engine) matchesSearch(rec types.Record, search string) bool {
	needle := strings.ToLower(search)
	for _, name := range e.schema.SearchFields() {
		value, ok := rec.Get(name)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(AsString(value)), needle) {
			return true
		}
	}
	return false
}
