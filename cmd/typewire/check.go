package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/typewire-dev/typewire/internal/schema"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <schema.toml>",
		Short: "Validate a protocol schema",
		Long: `Validate a typewire protocol schema without generating code.

Checks the rules the runtime registry enforces: unique names and wire
IDs, no reserved-range IDs, resolvable response references, supported
field types.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schema.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: ok (version %s, %d messages, %d responses)\n",
				args[0], s.Version, len(s.Messages), len(s.Responses))
			return nil
		},
	}
}
