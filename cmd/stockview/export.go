// Part of the stockview CLI - this file implements the 'stockview export'
// subcommand.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invlab/stockview/stockview/export"
)

var (
	exportFormat  string
	exportOut     string
	exportColumns []string
)

var exportCmd = &cobra.Command{
	Use:   "export <entity>",
	Short: "Export the composed view to a CSV or XLSX file",
	Long: `Compose the entity's view with the same list flags 'list' takes and
write the visible rows to a file. Without --out the file name derives from
the entity and a UTC timestamp.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "export format (csv|xlsx)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path")
	exportCmd.Flags().StringArrayVar(&exportColumns, "columns", nil, "columns to export (default: all)")

	// exports take the same view-shaping flags as list
	exportCmd.Flags().StringVar(&listSearch, "search", "", "free-text search across the searchable fields")
	exportCmd.Flags().StringArrayVar(&listFilters, "filter", nil, "equality filter, field=value (repeatable)")
	exportCmd.Flags().StringVar(&listFrom, "from", "", "date lower bound, YYYY-MM-DD")
	exportCmd.Flags().StringVar(&listTo, "to", "", "date upper bound, YYYY-MM-DD (inclusive)")
	exportCmd.Flags().StringVar(&listSort, "sort", "", "sort field")
	exportCmd.Flags().BoolVar(&listDesc, "desc", false, "sort descending")
}

func runExport(cmd *cobra.Command, args []string) error {
	// export the whole filtered working set, not one visible page
	exportSchema, err := resolveSchema(args[0])
	if err != nil {
		return err
	}
	listPageSize = exportSchema.EffectiveFetchSize()
	sess, cleanup, err := buildSession(args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	if err := sess.Refresh(cmd.Context()); err != nil {
		return err
	}

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	schema := sess.Schema()
	path, err := export.View(sess.Model(), schema, export.Options{
		Format:  format,
		Path:    exportOut,
		Columns: exportColumns,
		Header:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", schema.Entity, err)
	}

	fmt.Printf("exported %d records to %s\n", len(sess.Model().Rows), path)
	return nil
}
