package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the configured card data providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry, err := ctx.newRegistry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			headers := []string{"Provider", "Default"}
			rows := make([][]string, 0, 2)
			for _, id := range registry.IDs() {
				marker := ""
				if id == cfg.Providers.Default {
					marker = "yes"
				}
				rows = append(rows, []string{id, marker})
			}
			fmt.Fprintln(out, renderTable(out, headers, rows, nil))
			return nil
		},
	}
}
