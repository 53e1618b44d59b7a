package types

// SortSpec selects the single active sort key and its direction. A nil
// *SortSpec is the identity: records keep the order the filter produced.
type SortSpec struct {
	Field      string
	Descending bool
}

// NextSort implements the column-header toggle: sorting the active field
// again flips its direction, picking a new field starts ascending.
func NextSort(current *SortSpec, field string) *SortSpec {
	if current != nil && current.Field == field {
		return &SortSpec{Field: field, Descending: !current.Descending}
	}
	return &SortSpec{Field: field}
}
