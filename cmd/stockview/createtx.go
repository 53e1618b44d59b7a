// Part of the stockview CLI - this file implements the 'stockview create-tx'
// subcommand.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/invlab/stockview/stockview"
	"github.com/invlab/stockview/stockview/refcode"
	"github.com/invlab/stockview/types"
)

var (
	createTxType string
	createTxItem string
	createTxQty  float64
	createTxRef  string
	createTxDate string
)

var createTxCmd = &cobra.Command{
	Use:   "create-tx",
	Short: "Append a stock transaction to the data file",
	Long: `Create a stock transaction record in the JSON data file. The reference
code defaults to the allocator's next code for the type; pass --ref to use
an edited one instead.`,
	RunE: runCreateTx,
}

func init() {
	createTxCmd.Flags().StringVar(&createTxType, "type", "", "transaction type (IN|OUT|XFER)")
	createTxCmd.Flags().StringVar(&createTxItem, "item", "", "item code")
	createTxCmd.Flags().Float64Var(&createTxQty, "qty", 0, "quantity")
	createTxCmd.Flags().StringVar(&createTxRef, "ref", "", "reference code (default: allocated)")
	createTxCmd.Flags().StringVar(&createTxDate, "date", "", "transaction date, YYYY-MM-DD (default: today)")
	_ = createTxCmd.MarkFlagRequired("type")
	_ = createTxCmd.MarkFlagRequired("item")
	_ = createTxCmd.MarkFlagRequired("qty")
}

func runCreateTx(cmd *cobra.Command, args []string) error {
	src, cleanup, err := openFileSource()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	txType := strings.ToUpper(strings.TrimSpace(createTxType))

	ref := createTxRef
	if ref == "" {
		alloc := stockview.NewAllocator(src, "", mainLogger)
		ref = alloc.Next(ctx, txType, createTxItem)
	}

	txDate := time.Now().UTC().Format("2006-01-02")
	if createTxDate != "" {
		if _, err := time.Parse("2006-01-02", createTxDate); err != nil {
			return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", createTxDate)
		}
		txDate = createTxDate
	}

	rec, err := src.Append(ctx, refcode.DefaultResource, types.Record{
		Fields: map[string]interface{}{
			"ref":     ref,
			"tx_type": txType,
			"item":    createTxItem,
			"qty":     createTxQty,
			"tx_date": txDate,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	fmt.Printf("created %s %s (id %s)\n", headerStyle.Render(ref), mutedStyle.Render(txDate), rec.ID)
	return nil
}
