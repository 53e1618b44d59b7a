// Part of the stockview CLI - this file loads configuration from flags,
// environment variables and config files through Viper.
package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfg = viper.New()

// initConfig wires flags, STOCKVIEW_* environment variables and config
// files into one precedence chain, then writes the effective values back
// into the global flag variables the commands read.
func initConfig(cmd *cobra.Command) error {
	// STOCKVIEW_CONFIG points at a specific config file; otherwise discover
	// one in the usual places.
	if configFile := os.Getenv("STOCKVIEW_CONFIG"); configFile != "" {
		cfg.SetConfigFile(configFile)
	} else {
		cfg.SetConfigName("stockview")
		cfg.SetConfigType("yaml")
		cfg.AddConfigPath(".")
		cfg.AddConfigPath("$HOME/.stockview")
		cfg.AddConfigPath("/etc/stockview")
	}

	cfg.AutomaticEnv()
	cfg.SetEnvPrefix("STOCKVIEW")
	// --log-level -> STOCKVIEW_LOG_LEVEL
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// A missing config file is fine; flags and env still apply.
	_ = cfg.ReadInConfig()

	if err := cfg.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := cfg.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}

	dataPath = cfg.GetString("data")
	apiURL = cfg.GetString("api")
	schemaFile = cfg.GetString("schema")
	logLevel = cfg.GetString("log-level")
	logStdout = cfg.GetBool("log-stdout")
	return nil
}
