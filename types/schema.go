package types

import "fmt"

// FieldKind declares how a field's values are compared, filtered and sorted.
type FieldKind int

const (
	// StringField values compare with locale-aware collation
	StringField FieldKind = iota

	// NumberField values compare numerically
	NumberField

	// BoolField values compare false-before-true
	BoolField

	// DateField values compare by timestamp
	DateField

	// EnumField values are drawn from a fixed set and compare like strings
	EnumField
)

// String returns the kind name used in schema files and diagnostics.
func (k FieldKind) String() string {
	switch k {
	case StringField:
		return "string"
	case NumberField:
		return "number"
	case BoolField:
		return "bool"
	case DateField:
		return "date"
	case EnumField:
		return "enum"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// ParseFieldKind converts a schema-file kind name to a FieldKind.
func ParseFieldKind(s string) (FieldKind, error) {
	switch s {
	case "string", "":
		return StringField, nil
	case "number":
		return NumberField, nil
	case "bool":
		return BoolField, nil
	case "date":
		return DateField, nil
	case "enum":
		return EnumField, nil
	default:
		return StringField, fmt.Errorf("unknown field kind %q", s)
	}
}

// NullOrder selects where null or absent values land when a field is the
// active sort key. The policy is declared per field, never inferred at sort
// time, because two different classes of nullable fields exist in the lists:
// generic nullable fields push nulls after all real values, while unset
// dates read as the epoch and sort oldest.
type NullOrder int

const (
	// NullsDefault resolves by kind: date fields sort nulls oldest,
	// everything else sorts them last.
	NullsDefault NullOrder = iota

	// NullsLast sorts null values after every non-null value regardless of
	// direction; direction only reorders the non-null values.
	NullsLast

	// NullsOldest treats a null date as epoch 0, so it sorts as the oldest
	// value (first ascending, last descending).
	NullsOldest
)

// String returns the policy name used in schema files.
func (n NullOrder) String() string {
	switch n {
	case NullsDefault:
		return "default"
	case NullsLast:
		return "last"
	case NullsOldest:
		return "oldest"
	default:
		return fmt.Sprintf("NullOrder(%d)", int(n))
	}
}

// ParseNullOrder converts a schema-file null policy name to a NullOrder.
func ParseNullOrder(s string) (NullOrder, error) {
	switch s {
	case "", "default":
		return NullsDefault, nil
	case "last":
		return NullsLast, nil
	case "oldest":
		return NullsOldest, nil
	default:
		return NullsDefault, fmt.Errorf("unknown null order %q", s)
	}
}

// FieldSpec describes one column of a list view.
type FieldSpec struct {
	// Name is the record field this spec applies to
	Name string

	// Kind selects the comparator and predicate coercion
	Kind FieldKind

	// Nulls is the null-ordering policy; NullsDefault resolves by Kind
	Nulls NullOrder

	// Values restricts an EnumField to a fixed set (e.g. issue statuses)
	Values []string

	// Searchable marks the field as a target of free-text search
	Searchable bool
}

// NullPolicy resolves the effective null ordering for this field.
func (f FieldSpec) NullPolicy() NullOrder {
	if f.Nulls != NullsDefault {
		return f.Nulls
	}
	if f.Kind == DateField {
		return NullsOldest
	}
	return NullsLast
}

// RefSpec declares a foreign-key field whose value is resolved to a display
// string through a secondary lookup, e.g. requested_by -> users.full_name.
type RefSpec struct {
	// Field is the record field holding the foreign id
	Field string

	// Resource is the collaborator resource the id belongs to
	Resource string

	// Display is the field of the fetched record shown in place of the id
	Display string
}

// Default and boundary values for schema paging configuration. The page size
// bounds match the collaborator API, which rejects sizes outside 1..100.
const (
	DefaultPageSize  = 10
	MaxPageSize      = 100
	DefaultFetchSize = 500
)

// ViewSchema parametrizes the view pipeline for one entity. Each list page
// instantiates the same pipeline with its own schema instead of forking the
// filter/sort/paginate logic per entity.
type ViewSchema struct {
	// Entity is the collaborator resource name, e.g. "issues"
	Entity string

	// Fields declares the filterable/sortable columns
	Fields []FieldSpec

	// Refs declares the foreign-key fields to enrich
	Refs []RefSpec

	// PageSize is the visible window size, 1..100 (0 means DefaultPageSize)
	PageSize int

	// FetchSize bounds the raw working-set fetch in client-paginated mode
	// (0 means DefaultFetchSize)
	FetchSize int

	// DefaultSort, when set, is the order applied before any user sort
	DefaultSort *SortSpec
}

// Field looks up a field spec by name.
func (s ViewSchema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Ref looks up a reference spec by the referencing field name.
func (s ViewSchema) Ref(field string) (RefSpec, bool) {
	for _, r := range s.Refs {
		if r.Field == field {
			return r, true
		}
	}
	return RefSpec{}, false
}

// SearchFields returns the names of all searchable fields in declaration
// order.
func (s ViewSchema) SearchFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Searchable {
			names = append(names, f.Name)
		}
	}
	return names
}

// EffectivePageSize returns PageSize with the default applied.
func (s ViewSchema) EffectivePageSize() int {
	if s.PageSize <= 0 {
		return DefaultPageSize
	}
	return s.PageSize
}

// EffectiveFetchSize returns FetchSize with the default applied.
func (s ViewSchema) EffectiveFetchSize() int {
	if s.FetchSize <= 0 {
		return DefaultFetchSize
	}
	return s.FetchSize
}
