package stockview

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/invlab/stockview/internal/validation"
	"github.com/invlab/stockview/types"
)

// schemaFile is the YAML layout of a per-entity schema document.
type schemaFile struct {
	Entity      string `yaml:"entity"`
	PageSize    int    `yaml:"page_size"`
	FetchSize   int    `yaml:"fetch_size"`
	DefaultSort *struct {
		Field string `yaml:"field"`
		Dir   string `yaml:"dir"`
	} `yaml:"default_sort"`
	Fields []struct {
		Name   string   `yaml:"name"`
		Kind   string   `yaml:"kind"`
		Values []string `yaml:"values"`
		Nulls  string   `yaml:"nulls"`
		Search bool     `yaml:"search"`
	} `yaml:"fields"`
	Refs []struct {
		Field    string `yaml:"field"`
		Resource string `yaml:"resource"`
		Display  string `yaml:"display"`
	} `yaml:"refs"`
}

// LoadSchema parses and validates a YAML schema document.
func LoadSchema(data []byte) (types.ViewSchema, error) {
	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return types.ViewSchema{}, fmt.Errorf("failed to parse schema YAML: %w", err)
	}

	schema := types.ViewSchema{
		Entity:    file.Entity,
		PageSize:  file.PageSize,
		FetchSize: file.FetchSize,
	}

	for _, f := range file.Fields {
		kind, err := types.ParseFieldKind(f.Kind)
		if err != nil {
			return types.ViewSchema{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		nulls, err := types.ParseNullOrder(f.Nulls)
		if err != nil {
			return types.ViewSchema{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		schema.Fields = append(schema.Fields, types.FieldSpec{
			Name:       f.Name,
			Kind:       kind,
			Nulls:      nulls,
			Values:     f.Values,
			Searchable: f.Search,
		})
	}

	for _, r := range file.Refs {
		schema.Refs = append(schema.Refs, types.RefSpec{
			Field:    r.Field,
			Resource: r.Resource,
			Display:  r.Display,
		})
	}

	if file.DefaultSort != nil {
		dir := strings.ToLower(strings.TrimSpace(file.DefaultSort.Dir))
		if dir != "" && dir != "asc" && dir != "desc" {
			return types.ViewSchema{}, fmt.Errorf("default sort dir must be asc or desc, got %q", file.DefaultSort.Dir)
		}
		schema.DefaultSort = &types.SortSpec{
			Field:      file.DefaultSort.Field,
			Descending: dir == "desc",
		}
	}

	if err := validation.Validate(schema); err != nil {
		return types.ViewSchema{}, fmt.Errorf("schema for %s: %w", schema.Entity, err)
	}
	return schema, nil
}

// LoadSchemaFile reads and parses a YAML schema file.
func LoadSchemaFile(path string) (types.ViewSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ViewSchema{}, fmt.Errorf("failed to read schema file: %w", err)
	}
	return LoadSchema(data)
}
