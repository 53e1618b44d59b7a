// Part of the stockview CLI - this file implements the 'stockview list'
// subcommand.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invlab/stockview/stockview"
	"github.com/invlab/stockview/types"
)

var (
	listSearch   string
	listFilters  []string
	listFrom     string
	listTo       string
	listSort     string
	listDesc     bool
	listPage     int
	listPageSize int
	listServer   bool
	listResolve  bool
	listFormat   string
)

var listCmd = &cobra.Command{
	Use:   "list <entity>",
	Short: "List records of an entity",
	Long: `Compose and print one page of an entity list: filter, sort and paginate
the way the console's list pages do. Equality filters take field=value pairs;
--from and --to bound the entity's date column.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "free-text search across the searchable fields")
	listCmd.Flags().StringArrayVar(&listFilters, "filter", nil, "equality filter, field=value (repeatable)")
	listCmd.Flags().StringVar(&listFrom, "from", "", "date lower bound, YYYY-MM-DD")
	listCmd.Flags().StringVar(&listTo, "to", "", "date upper bound, YYYY-MM-DD (inclusive)")
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort field")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "sort descending")
	listCmd.Flags().IntVar(&listPage, "page", 1, "1-based page number")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 0, "page size (default from the schema)")
	listCmd.Flags().BoolVar(&listServer, "server", false, "server-paginated mode")
	listCmd.Flags().BoolVar(&listResolve, "resolve", false, "resolve reference fields to display names")
	listCmd.Flags().StringVar(&listFormat, "format", "table", "output format (table|json|csv)")
}

func runList(cmd *cobra.Command, args []string) error {
	sess, cleanup, err := buildSession(args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := sess.Refresh(ctx); err != nil {
		return err
	}
	if listPage > 1 {
		// the page range is only known after the first fetch
		sess.SetPage(listPage)
	}
	// server mode needs a second fetch when a flag marked the session dirty
	// after the first one
	if sess.NeedsRefresh() {
		if err := sess.Refresh(ctx); err != nil {
			return err
		}
	}

	if listResolve {
		if err := sess.ResolveRefs(ctx); err != nil {
			return fmt.Errorf("failed to resolve references: %w", err)
		}
	}

	renderSess := sess
	if !listResolve {
		renderSess = nil
	}
	return renderModel(listFormat, renderSess, *sess.Schema(), sess.Model())
}

// buildSession opens the configured source and applies the list flags to a
// fresh session for the entity.
func buildSession(entity string) (*stockview.Session, func(), error) {
	schema, err := resolveSchema(entity)
	if err != nil {
		return nil, nil, err
	}

	src, cleanup, err := openSource()
	if err != nil {
		return nil, nil, err
	}

	mode := stockview.ClientPaged
	if listServer {
		mode = stockview.ServerPaged
	}
	sess, err := stockview.NewSession(src, schema, stockview.Options{
		Mode:     mode,
		PageSize: listPageSize,
		Logger:   mainLogger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	if listSearch != "" {
		sess.SetSearch(listSearch)
	}
	for _, pair := range listFilters {
		field, value, ok := strings.Cut(pair, "=")
		if !ok {
			cleanup()
			return nil, nil, fmt.Errorf("invalid filter %q, expected field=value", pair)
		}
		predicate := types.Equals
		if f, declared := schema.Field(field); declared && f.Kind == types.EnumField {
			predicate = types.EnumEquals
		}
		sess.SetClause(field, predicate, value)
	}
	if listFrom != "" || listTo != "" {
		field := dateField(schema)
		if field == "" {
			cleanup()
			return nil, nil, fmt.Errorf("entity %s has no date field to bound", entity)
		}
		if listFrom != "" {
			sess.SetClause(field, types.DateFrom, listFrom)
		}
		if listTo != "" {
			sess.SetClause(field, types.DateTo, listTo)
		}
	}
	if listSort != "" {
		sess.SetSort(listSort)
		if listDesc {
			// toggle once more to flip ascending to descending
			sess.SetSort(listSort)
		}
	}
	return sess, cleanup, nil
}

// dateField returns the schema's first declared date field; the date-range
// flags bound it.
func dateField(schema types.ViewSchema) string {
	for _, f := range schema.Fields {
		if f.Kind == types.DateField {
			return f.Name
		}
	}
	return ""
}
