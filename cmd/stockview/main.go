// This is the main entry point for the stockview CLI.
// Build with: go build -o bin/stockview ./cmd/stockview
// Usage: stockview <command> [options]
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
