package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <path[:identifier]>...",
		Aliases: []string{"rm"},
		Short:   "Stop protecting files or identifiers",
		Long: `Stop protecting files or identifiers.

A bare path removes only the whole-file entry; identifier entries for the
same file stay protected until removed by their exact name.`,
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
			removed := 0
			for _, t := range targets {
				if g.Remove(t.path, t.pattern) == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "not protected: %s\n", t.key())
					continue
				}
				removed++
				fmt.Fprintf(out, "removed %s\n", t.key())
			}

			if removed == 0 {
				return fmt.Errorf("no matching entries")
			}
			return g.Save()
		},
	}
}

// key renders a target the way manifest entries are keyed.
func (t target) key() string {
	if t.pattern == "" {
		return t.path
	}
	return t.path + ":" + t.pattern
}
