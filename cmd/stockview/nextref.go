// Part of the stockview CLI - this file implements the 'stockview next-ref'
// subcommand.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invlab/stockview/stockview"
)

var (
	nextRefType string
	nextRefItem string
)

var nextRefCmd = &cobra.Command{
	Use:   "next-ref",
	Short: "Print the next reference code for a transaction type",
	Long: `Derive the next sequential reference code from the most recent stock
transaction of the type, in the form TYPE-NNNN-ITEM. The number is advisory;
a type with no usable predecessor starts at 0001.`,
	RunE: runNextRef,
}

func init() {
	nextRefCmd.Flags().StringVar(&nextRefType, "type", "", "transaction type (IN|OUT|XFER)")
	nextRefCmd.Flags().StringVar(&nextRefItem, "item", "", "item code")
	_ = nextRefCmd.MarkFlagRequired("type")
	_ = nextRefCmd.MarkFlagRequired("item")
}

func runNextRef(cmd *cobra.Command, args []string) error {
	src, cleanup, err := openSource()
	if err != nil {
		return err
	}
	defer cleanup()

	alloc := stockview.NewAllocator(src, "", mainLogger)
	fmt.Println(alloc.Next(cmd.Context(), nextRefType, nextRefItem))
	return nil
}
