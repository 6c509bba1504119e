package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List protected entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := openGuard()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range g.Entries() {
				fmt.Fprintf(out, "%s  %s\n", e.Hash, e.Key())
			}
			return nil
		},
	}
}
