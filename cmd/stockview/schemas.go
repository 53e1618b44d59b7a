// Part of the stockview CLI - this file declares the built-in entity
// schemas and resolves the schema a command should run with.
package main

import (
	"fmt"

	"github.com/invlab/stockview/stockview"
	"github.com/invlab/stockview/types"
)

// builtinSchemas describes the console's five list pages. A --schema YAML
// file overrides the entity it declares.
func builtinSchemas() []types.ViewSchema {
	return []types.ViewSchema{
		{
			Entity: "issues",
			Fields: []types.FieldSpec{
				{Name: "code", Kind: types.StringField, Searchable: true},
				{Name: "status", Kind: types.EnumField, Values: []string{"DRAFT", "ISSUED", "CANCELLED"}},
				{Name: "qty", Kind: types.NumberField},
				{Name: "issued_at", Kind: types.DateField, Nulls: types.NullsOldest},
				{Name: "requested_by", Kind: types.StringField},
				{Name: "note", Kind: types.StringField, Searchable: true},
			},
			Refs: []types.RefSpec{
				{Field: "requested_by", Resource: "users", Display: "full_name"},
			},
			PageSize:    10,
			DefaultSort: &types.SortSpec{Field: "issued_at", Descending: true},
		},
		{
			Entity: "stock_tx",
			Fields: []types.FieldSpec{
				{Name: "ref", Kind: types.StringField, Searchable: true},
				{Name: "tx_type", Kind: types.EnumField, Values: []string{"IN", "OUT", "XFER"}},
				{Name: "item", Kind: types.StringField},
				{Name: "qty", Kind: types.NumberField},
				{Name: "tx_date", Kind: types.DateField},
			},
			Refs: []types.RefSpec{
				{Field: "item", Resource: "items", Display: "name"},
			},
			PageSize:    10,
			DefaultSort: &types.SortSpec{Field: "tx_date", Descending: true},
		},
		{
			Entity: "items",
			Fields: []types.FieldSpec{
				{Name: "code", Kind: types.StringField, Searchable: true},
				{Name: "name", Kind: types.StringField, Searchable: true},
				{Name: "unit", Kind: types.StringField},
				{Name: "active", Kind: types.BoolField},
			},
			Refs: []types.RefSpec{
				{Field: "unit", Resource: "units", Display: "name"},
			},
			PageSize:    10,
			DefaultSort: &types.SortSpec{Field: "code"},
		},
		{
			Entity: "units",
			Fields: []types.FieldSpec{
				{Name: "name", Kind: types.StringField, Searchable: true},
				{Name: "symbol", Kind: types.StringField},
			},
		},
		{
			Entity: "users",
			Fields: []types.FieldSpec{
				{Name: "full_name", Kind: types.StringField, Searchable: true},
				{Name: "role", Kind: types.EnumField, Values: []string{"storekeeper", "technician", "supervisor"}},
			},
		},
	}
}

// resolveSchema returns the schema for an entity: the --schema file when it
// declares that entity, otherwise the built-in.
func resolveSchema(entity string) (types.ViewSchema, error) {
	if schemaFile != "" {
		schema, err := stockview.LoadSchemaFile(schemaFile)
		if err != nil {
			return types.ViewSchema{}, fmt.Errorf("failed to load schema file: %w", err)
		}
		if schema.Entity == entity {
			return schema, nil
		}
	}
	for _, schema := range builtinSchemas() {
		if schema.Entity == entity {
			return schema, nil
		}
	}
	return types.ViewSchema{}, fmt.Errorf("unknown entity %q (known: issues, stock_tx, items, units, users)", entity)
}
