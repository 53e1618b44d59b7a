// Part of the stockview CLI - this file wires the root command, global
// flags and the source selection shared by every subcommand.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invlab/stockview/stockview/source"
	"github.com/invlab/stockview/types"
)

var (
	dataPath   string
	apiURL     string
	schemaFile string
	logLevel   string
	logStdout  bool
)

var rootCmd = &cobra.Command{
	Use:   "stockview",
	Short: "Inventory console data views",
	Long: `Stockview runs the inventory console's list pipeline from the command
line: filter, sort, paginate and enrich the entity lists, allocate reference
codes for new stock transactions, and export composed views.

Records come from the REST API (--api) or a local JSON data file (--data).

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (STOCKVIEW_*)
3. Configuration files (STOCKVIEW_CONFIG, ./stockview.yaml,
   ~/.stockview/stockview.yaml, /etc/stockview/stockview.yaml)

Examples:
  stockview list issues --search bolts --filter status=DRAFT
  stockview next-ref --type OUT --item BOLT-M8
  stockview export issues --format xlsx`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(cmd); err != nil {
			return err
		}
		return initLogging(logLevel, logStdout)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "stockview.json", "path to the JSON data file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "base URL of the inventory API (takes precedence over --data)")
	rootCmd.PersistentFlags().StringVar(&schemaFile, "schema", "", "YAML schema file overriding the built-in entity schemas")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logStdout, "log-stdout", false, "also log to stdout")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(nextRefCmd)
	rootCmd.AddCommand(createTxCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
}

// openSource builds the collaborator selected by the global flags. The
// returned cleanup is safe to call once, always.
func openSource() (types.Source, func(), error) {
	if apiURL != "" {
		src := source.NewHTTPSource(apiURL, source.WithHTTPLogger(mainLogger))
		return src, func() {}, nil
	}
	return openFileSource()
}

// openFileSource opens the JSON data file regardless of --api; commands
// that write records (create-tx) or watch the file need it directly.
func openFileSource() (*source.FileSource, func(), error) {
	src, err := source.NewFileSource(dataPath, builtinSchemas(),
		source.WithLogger(mainLogger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open data file %s: %w", dataPath, err)
	}
	return src, func() { _ = src.Close() }, nil
}
