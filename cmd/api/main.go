package main

import (
	"fmt"
	"os"

	"github.com/loanlink/backend/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "loanlink-api",
		Short:   "LoanLink marketplace API",
		Version: version.Version,
		// Running the binary without a subcommand starts the server.
		RunE: runServe,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
