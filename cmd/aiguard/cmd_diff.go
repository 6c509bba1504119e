package main

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/odvcencio/aiguard/pkg/guard"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff [path[:identifier]]...",
		Short: "Show how failing entries differ from their approved baseline",
		Long: `Show how failing entries differ from their approved baseline.

Without arguments, diffs every entry that currently fails verification.
Baselines are recorded whenever the manifest is saved; entries protected
before baselines existed report "no baseline recorded".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := openGuard()
			if err != nil {
				return err
			}

			entries, err := diffCandidates(g, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				base, ok := g.BaselineText(e)
				if !ok {
					fmt.Fprintf(out, "no baseline recorded for %s\n", e.Key())
					continue
				}
				current, ok := g.CurrentText(e)
				if !ok {
					fmt.Fprintf(out, "cannot read current content of %s\n", e.Key())
					continue
				}
				if base == current {
					continue
				}

				text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
					A:        difflib.SplitLines(base),
					B:        difflib.SplitLines(current),
					FromFile: "approved/" + e.Key(),
					ToFile:   "current/" + e.Key(),
					Context:  3,
				})
				if err != nil {
					return fmt.Errorf("diff %s: %w", e.Key(), err)
				}
				fmt.Fprint(out, text)
			}
			return nil
		},
	}
}

// diffCandidates selects the entries to diff: those named by args, or
// every currently failing entry when no args are given.
func diffCandidates(g *guard.Guard, args []string) ([]guard.Entry, error) {
	if len(args) == 0 {
		failures, err := g.Verify()
		if err != nil {
			return nil, err
		}
		var out []guard.Entry
		for _, f := range failures {
			if f.Entry.IsSelf() {
				continue
			}
			out = append(out, f.Entry)
		}
		return out, nil
	}

	targets, err := expandTargets(g.Root(), args)
	if err != nil {
		return nil, err
	}
	var out []guard.Entry
	for _, t := range targets {
		found := false
		for _, e := range g.Entries() {
			if e.Path == t.path && e.Identifier == t.pattern {
				out = append(out, e)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("not protected: %s", t.key())
		}
	}
	return out, nil
}
