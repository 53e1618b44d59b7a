// Package validation checks view schemas for consistency before a pipeline
// is built from them. Both declaration paths, struct tags and YAML files,
// funnel through Validate, so a malformed schema fails the same way no
// matter where it came from.
package validation

import (
	"fmt"
	"strings"

	"github.com/invlab/stockview/types"
)

// maxFields bounds a schema to keep per-record evaluation cheap.
const maxFields = 64

// Validate checks a view schema for consistency.
func Validate(s types.ViewSchema) error {
	if strings.TrimSpace(s.Entity) == "" {
		return fmt.Errorf("schema entity cannot be empty")
	}
	if len(s.Fields) > maxFields {
		return fmt.Errorf("too many fields: %d (maximum %d)", len(s.Fields), maxFields)
	}
	if s.PageSize < 0 || s.PageSize > types.MaxPageSize {
		return fmt.Errorf("page size %d out of range 1..%d", s.PageSize, types.MaxPageSize)
	}
	if s.FetchSize < 0 {
		return fmt.Errorf("fetch size cannot be negative")
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if err := validateField(f); err != nil {
			return err
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = true
	}

	for _, ref := range s.Refs {
		if err := validateRef(s, ref); err != nil {
			return err
		}
	}

	if s.DefaultSort != nil {
		if _, ok := s.Field(s.DefaultSort.Field); !ok {
			return fmt.Errorf("default sort field %q is not declared", s.DefaultSort.Field)
		}
	}
	return nil
}

func validateField(f types.FieldSpec) error {
	if f.Name == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if IsReservedFieldName(f.Name) {
		return fmt.Errorf("%q is a reserved field name", f.Name)
	}

	if f.Kind == types.EnumField {
		if len(f.Values) == 0 {
			return fmt.Errorf("field %s: enum fields need at least one value", f.Name)
		}
		valuesSeen := make(map[string]bool, len(f.Values))
		for _, v := range f.Values {
			if v == "" {
				return fmt.Errorf("field %s: enum values cannot be empty", f.Name)
			}
			if valuesSeen[v] {
				return fmt.Errorf("field %s: duplicate enum value %q", f.Name, v)
			}
			valuesSeen[v] = true
		}
	} else if len(f.Values) > 0 {
		return fmt.Errorf("field %s: only enum fields carry values", f.Name)
	}

	if f.Nulls == types.NullsOldest && f.Kind != types.DateField {
		return fmt.Errorf("field %s: nulls-oldest ordering applies to date fields only", f.Name)
	}

	if f.Searchable && f.Kind != types.StringField && f.Kind != types.EnumField {
		return fmt.Errorf("field %s: only string-valued fields are searchable", f.Name)
	}
	return nil
}

func validateRef(s types.ViewSchema, ref types.RefSpec) error {
	if ref.Field == "" {
		return fmt.Errorf("reference field name cannot be empty")
	}
	if _, ok := s.Field(ref.Field); !ok {
		return fmt.Errorf("reference field %q is not declared", ref.Field)
	}
	if ref.Resource == "" {
		return fmt.Errorf("reference field %s: resource cannot be empty", ref.Field)
	}
	if ref.Display == "" {
		return fmt.Errorf("reference field %s: display field cannot be empty", ref.Field)
	}
	return nil
}

// IsReservedFieldName reports whether a name belongs to the identity and
// timestamp columns every record carries. Schemas cannot redeclare them.
func IsReservedFieldName(name string) bool {
	switch strings.ToLower(name) {
	case "id", "created_at", "updated_at":
		return true
	}
	return false
}
