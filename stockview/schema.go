package stockview

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/invlab/stockview/internal/validation"
	"github.com/invlab/stockview/types"
)

// SchemaOf derives a validated ViewSchema from a row struct's tags. See
// SchemaFor for the tag grammar.
func SchemaOf[T any](entity string) (types.ViewSchema, error) {
	var zero T
	return SchemaFor(entity, reflect.TypeOf(zero))
}

// SchemaFor derives a validated ViewSchema from a struct type. Each
// exported field becomes one FieldSpec; the tags are:
//
//	view:"<name>"              field name (omitted: snake_case of the Go name; "-" skips)
//	kind:"string|number|bool|date|enum"  (omitted: inferred from the Go type)
//	values:"A,B,C"             enum value set
//	nulls:"last|oldest"        null-ordering policy
//	search:"true"              free-text search target
//	ref:"<resource>.<display>" foreign-key enrichment declaration
//
// Fields named id, created_at or updated_at are the implicit record columns
// and are skipped rather than redeclared.
func SchemaFor(entity string, t reflect.Type) (types.ViewSchema, error) {
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return types.ViewSchema{}, fmt.Errorf("expected struct type, got %v", t)
	}

	schema := types.ViewSchema{Entity: entity}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Tag.Get("view")
		if name == "-" {
			continue
		}
		if name == "" {
			name = toSnakeCase(field.Name)
		}
		if validation.IsReservedFieldName(name) {
			continue
		}

		spec := types.FieldSpec{Name: name}

		if valuesTag := field.Tag.Get("values"); valuesTag != "" {
			for _, v := range strings.Split(valuesTag, ",") {
				if v = strings.TrimSpace(v); v != "" {
					spec.Values = append(spec.Values, v)
				}
			}
		}

		kindTag := field.Tag.Get("kind")
		switch {
		case kindTag != "":
			kind, err := types.ParseFieldKind(kindTag)
			if err != nil {
				return types.ViewSchema{}, fmt.Errorf("field %s: %w", field.Name, err)
			}
			spec.Kind = kind
		case len(spec.Values) > 0:
			spec.Kind = types.EnumField
		default:
			spec.Kind = inferKind(field.Type)
		}

		if nullsTag := field.Tag.Get("nulls"); nullsTag != "" {
			nulls, err := types.ParseNullOrder(nullsTag)
			if err != nil {
				return types.ViewSchema{}, fmt.Errorf("field %s: %w", field.Name, err)
			}
			spec.Nulls = nulls
		}

		spec.Searchable = field.Tag.Get("search") == "true"
		schema.Fields = append(schema.Fields, spec)

		if refTag := field.Tag.Get("ref"); refTag != "" {
			resource, display, ok := strings.Cut(refTag, ".")
			if !ok || resource == "" || display == "" {
				return types.ViewSchema{}, fmt.Errorf("field %s: ref tag must be \"resource.display_field\", got %q", field.Name, refTag)
			}
			schema.Refs = append(schema.Refs, types.RefSpec{
				Field:    name,
				Resource: resource,
				Display:  display,
			})
		}
	}

	if err := validation.Validate(schema); err != nil {
		return types.ViewSchema{}, fmt.Errorf("schema for %s: %w", entity, err)
	}
	return schema, nil
}

// inferKind maps a Go field type to the field kind its values compare
// under.
func inferKind(t reflect.Type) types.FieldKind {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == reflect.TypeOf(time.Time{}) {
		return types.DateField
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return types.NumberField
	case reflect.Bool:
		return types.BoolField
	default:
		return types.StringField
	}
}

// toSnakeCase converts a CamelCase field name to snake_case.
func toSnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prevLower := s[i-1] >= 'a' && s[i-1] <= 'z'
			nextLower := i+1 < len(s) && s[i+1] >= 'a' && s[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
