// Part of the stockview CLI - this file implements the 'stockview show'
// subcommand.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invlab/stockview/stockview/query"
	"github.com/invlab/stockview/types"
)

var showCmd = &cobra.Command{
	Use:   "show <entity> <id>",
	Short: "Show one record with resolved references",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	entity, id := args[0], args[1]
	schema, err := resolveSchema(entity)
	if err != nil {
		return err
	}

	src, cleanup, err := openSource()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	rec, err := src.FetchByID(ctx, entity, id)
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("no %s record with id %s", entity, id)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch %s/%s: %w", entity, id, err)
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%s %s", entity, rec.ID)))
	for _, f := range schema.Fields {
		v, ok := rec.Get(f.Name)
		value := ""
		if ok && v != nil {
			value = query.AsString(v)
		}
		if ref, isRef := schema.Ref(f.Name); isRef && value != "" {
			display := value
			if refRec, err := src.FetchByID(ctx, ref.Resource, value); err == nil {
				if d, ok := refRec.Get(ref.Display); ok {
					display = fmt.Sprintf("%s (%s)", query.AsString(d), value)
				}
			}
			value = display
		}
		fmt.Printf("  %s %s\n", mutedStyle.Render(f.Name+":"), value)
	}
	fmt.Printf("  %s %s\n", mutedStyle.Render("created_at:"), rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  %s %s\n", mutedStyle.Render("updated_at:"), rec.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
