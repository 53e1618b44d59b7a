package query

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/invlab/stockview/types"
)

// Sort returns a copy of records ordered by the given key. A nil spec is the
// identity and returns the input slice unchanged. The sort is stable, so
// records with equal keys keep the relative order the filter produced.
func (e *Engine) Sort(records []types.Record, spec *types.SortSpec) []types.Record {
	if spec == nil || spec.Field == "" {
		return records
	}

	out := make([]types.Record, len(records))
	copy(out, records)

	field := e.fieldSpec(spec.Field)
	policy := field.NullPolicy()
	// collators carry internal buffers and cannot be shared across
	// goroutines, so each Sort call gets its own
	col := collate.New(language.Und)

	sort.SliceStable(out, func(i, j int) bool {
		vi, _ := out[i].Get(spec.Field)
		vj, _ := out[j].Get(spec.Field)

		if policy == types.NullsLast {
			ni := nullForKind(vi, field.Kind)
			nj := nullForKind(vj, field.Kind)
			if ni || nj {
				// nulls go after every real value in both directions
				return !ni && nj
			}
		}

		c := compareValues(vi, vj, field.Kind, col)
		if spec.Descending {
			return c > 0
		}
		return c < 0
	})
	return out
}

// compareValues orders two values under the comparator their field kind
// selects. Dates that fail to parse compare as the epoch, which is how the
// nulls-oldest policy makes unset dates the oldest entries.
func compareValues(a, b interface{}, kind types.FieldKind, col *collate.Collator) int {
	switch kind {
	case types.NumberField:
		na, _ := asNumber(a)
		nb, _ := asNumber(b)
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0

	case types.BoolField:
		ba, bb := asBool(a), asBool(b)
		switch {
		case !ba && bb:
			return -1
		case ba && !bb:
			return 1
		}
		return 0

	case types.DateField:
		ta := dateOrEpoch(a)
		tb := dateOrEpoch(b)
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		}
		return 0

	default:
		return col.CompareString(AsString(a), AsString(b))
	}
}

// nullForKind reports whether a value reads as null under a field's
// comparator: nil or blank generally, anything that fails coercion for
// numbers and dates.
func nullForKind(v interface{}, kind types.FieldKind) bool {
	switch kind {
	case types.NumberField:
		_, ok := asNumber(v)
		return !ok
	case types.DateField:
		_, ok := asTime(v)
		return !ok
	default:
		return isNull(v)
	}
}

func dateOrEpoch(v interface{}) time.Time {
	if t, ok := asTime(v); ok {
		return t
	}
	return time.Unix(0, 0).UTC()
}
