package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "typewire",
		Short: "Typed message-protocol tooling",
		Long: `typewire is the CLI for the typewire messaging substrate.

It works on declarative protocol schemas (TOML) and produces
statically-typed Go bindings over the generic sender/receiver layer:

  • typewire check   validates a schema
  • typewire gen     generates Go bindings from a schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		checkCmd(),
		genCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
