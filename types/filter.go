package types

import (
	"fmt"
	"strings"
)

// PredicateKind enumerates the per-field predicates a filter clause can
// apply.
type PredicateKind int

const (
	// Contains is a case-insensitive substring match on the string-coerced
	// field value
	Contains PredicateKind = iota

	// Equals is an exact match after case normalization
	Equals

	// EnumEquals is Equals for enum-like fields; the sentinel operand "all"
	// matches everything
	EnumEquals

	// DateFrom keeps records dated on or after the operand day
	DateFrom

	// DateTo keeps records dated through the end of the operand day
	DateTo
)

// String returns the predicate name used in diagnostics.
func (k PredicateKind) String() string {
	switch k {
	case Contains:
		return "contains"
	case Equals:
		return "equals"
	case EnumEquals:
		return "enumEquals"
	case DateFrom:
		return "dateRangeFrom"
	case DateTo:
		return "dateRangeTo"
	default:
		return fmt.Sprintf("PredicateKind(%d)", int(k))
	}
}

// AnyValue is the enum filter operand meaning "no constraint". Status
// dropdowns submit it as their default option.
const AnyValue = "all"

// FilterClause is one per-field predicate. Operands arrive as strings
// because they come from form inputs; an empty operand makes the clause
// inert.
type FilterClause struct {
	Field     string
	Predicate PredicateKind
	Operand   string
}

// Inert reports whether the clause cannot constrain results: an empty
// operand, or the AnyValue sentinel on an equality predicate.
func (c FilterClause) Inert() bool {
	op := strings.TrimSpace(c.Operand)
	if op == "" {
		return true
	}
	if c.Predicate == Equals || c.Predicate == EnumEquals {
		return strings.EqualFold(op, AnyValue)
	}
	return false
}

// FilterSpec is the declarative description of every active predicate on a
// list view. Clauses combine with logical AND; Search is the debounced
// search-box text, matched against each searchable field (any match keeps
// the record) and AND-composed with the clauses.
type FilterSpec struct {
	Clauses []FilterClause
	Search  string
}

// WithClause returns a copy of the spec with one more clause.
func (s FilterSpec) WithClause(field string, predicate PredicateKind, operand string) FilterSpec {
	clauses := make([]FilterClause, len(s.Clauses), len(s.Clauses)+1)
	copy(clauses, s.Clauses)
	clauses = append(clauses, FilterClause{Field: field, Predicate: predicate, Operand: operand})
	return FilterSpec{Clauses: clauses, Search: s.Search}
}

// IsZero reports whether the spec constrains nothing: no search text and
// every clause inert.
func (s FilterSpec) IsZero() bool {
	if strings.TrimSpace(s.Search) != "" {
		return false
	}
	for _, c := range s.Clauses {
		if !c.Inert() {
			return false
		}
	}
	return true
}
