package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/typewire-dev/typewire/internal/gen"
	"github.com/typewire-dev/typewire/internal/schema"
)

func genCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "gen <schema.toml>",
		Short: "Generate Go bindings from a protocol schema",
		Long: `Generate a Go source file from a typewire protocol schema.

The output contains the payload structs with binary codec methods, a
frozen registry constructor, a typed client, and typed handler-wiring
helpers.

Examples:
  typewire gen billing.toml                 # writes billing_gen.go
  typewire gen -o wire/wire.go billing.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			s, err := schema.Load(path)
			if err != nil {
				return err
			}

			src, err := gen.Generate(s)
			if err != nil {
				return err
			}

			out := output
			if out == "" {
				out = strings.TrimSuffix(path, ".toml") + "_gen.go"
			}
			if err := os.WriteFile(out, src, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d messages, %d responses)\n", out, len(s.Messages), len(s.Responses))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: <schema>_gen.go)")

	return cmd
}
