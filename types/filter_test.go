package types

import "testing"

func TestFilterClauseInert(t *testing.T) {
	tests := []struct {
		name   string
		clause FilterClause
		inert  bool
	}{
		{"empty operand", FilterClause{Field: "code", Predicate: Contains, Operand: ""}, true},
		{"whitespace operand", FilterClause{Field: "code", Predicate: Contains, Operand: "   "}, true},
		{"all sentinel on enum", FilterClause{Field: "status", Predicate: EnumEquals, Operand: "all"}, true},
		{"all sentinel any case", FilterClause{Field: "status", Predicate: EnumEquals, Operand: "ALL"}, true},
		{"all sentinel on equals", FilterClause{Field: "status", Predicate: Equals, Operand: "all"}, true},
		{"all literal on contains stays active", FilterClause{Field: "note", Predicate: Contains, Operand: "all"}, false},
		{"active equals", FilterClause{Field: "status", Predicate: Equals, Operand: "DRAFT"}, false},
		{"active date bound", FilterClause{Field: "issued_at", Predicate: DateFrom, Operand: "2024-01-01"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.clause.Inert(); got != tt.inert {
				t.Errorf("expected inert=%v, got %v", tt.inert, got)
			}
		})
	}
}

func TestFilterSpecIsZero(t *testing.T) {
	var spec FilterSpec
	if !spec.IsZero() {
		t.Error("empty spec should be zero")
	}

	spec = spec.WithClause("status", EnumEquals, "all")
	if !spec.IsZero() {
		t.Error("spec with only inert clauses should be zero")
	}

	spec = spec.WithClause("status", EnumEquals, "DRAFT")
	if spec.IsZero() {
		t.Error("spec with an active clause should not be zero")
	}

	withSearch := FilterSpec{Search: "widget"}
	if withSearch.IsZero() {
		t.Error("spec with search text should not be zero")
	}
}

func TestWithClauseDoesNotAliasBacking(t *testing.T) {
	base := FilterSpec{}.WithClause("status", EnumEquals, "DRAFT")
	a := base.WithClause("note", Contains, "urgent")
	b := base.WithClause("note", Contains, "routine")

	if a.Clauses[1].Operand != "urgent" || b.Clauses[1].Operand != "routine" {
		t.Errorf("derived specs share state: %v vs %v", a.Clauses[1], b.Clauses[1])
	}
	if len(base.Clauses) != 1 {
		t.Errorf("base spec mutated, now %d clauses", len(base.Clauses))
	}
}
