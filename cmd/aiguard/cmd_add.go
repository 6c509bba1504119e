package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path[:pattern]>...",
		Short: "Protect whole files or named identifiers",
		Long: `Protect whole files or named identifiers.

Targets are paths, optionally followed by an identifier pattern:

  aiguard add src/auth.c                 whole file
  aiguard add src/auth.c:check_token     one function
  aiguard add src/auth.c:Point::x        one struct member
  aiguard add "src/*.py:test_*"          wildcards in both parts

Existing entries are never overwritten; use update to re-approve changes.`,
		Args: cobra.MinimumNArgs(1),
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
			addedCount, succeeded, failed := 0, 0, 0

			for _, t := range targets {
				if t.pattern == "" {
					added, skipped, err := g.AddFile(t.path)
					if err != nil {
						failed++
						fmt.Fprintln(cmd.ErrOrStderr(), err)
						continue
					}
					succeeded++
					if added != nil {
						addedCount++
						fmt.Fprintf(out, "protected %s\n", added.Key())
					}
					if skipped != nil {
						fmt.Fprintf(out, "already protected %s (existing hash kept)\n", skipped.Key())
					}
					continue
				}

				added, skipped, err := g.AddIdentifier(t.path, t.pattern)
				if err != nil {
					failed++
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					continue
				}
				succeeded++
				addedCount += len(added)
				for _, e := range added {
					fmt.Fprintf(out, "protected %s\n", e.Key())
				}
				for _, e := range skipped {
					fmt.Fprintf(out, "already protected %s (existing hash kept)\n", e.Key())
				}
			}

			if addedCount > 0 {
				if err := g.Save(); err != nil {
					return err
				}
			}
			if failed > 0 && succeeded == 0 {
				return fmt.Errorf("nothing protected: %d target(s) failed", failed)
			}
			return nil
		},
	}
}
