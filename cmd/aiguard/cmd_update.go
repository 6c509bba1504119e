package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <path[:pattern]>...",
		Short: "Re-approve protected regions at their current content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := openGuard()
			if err != nil {
				return err
			}
			targets, err := expandTargets(g.Root(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			updatedCount, failed := 0, 0

			for _, t := range targets {
				updated, err := g.Update(t.path, t.pattern)
				if err != nil {
					failed++
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					continue
				}
				updatedCount += len(updated)
				for _, e := range updated {
					fmt.Fprintf(out, "updated %s\n", e.Key())
				}
			}

			if updatedCount > 0 {
				if err := g.Save(); err != nil {
					return err
				}
			}
			if failed > 0 && updatedCount == 0 {
				return fmt.Errorf("nothing updated: %d target(s) failed", failed)
			}
			return nil
		},
	}
}
