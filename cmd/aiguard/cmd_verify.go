package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify every protected entry against current content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := openGuard()
			if err != nil {
				return err
			}

			failures, err := g.Verify()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(failures) == 0 {
				fmt.Fprintf(out, "ok: verified %d protected entr%s\n",
					len(g.Entries()), plural(len(g.Entries()), "y", "ies"))
				return nil
			}

			for _, f := range failures {
				fmt.Fprintf(out, "FAIL  %s: %s\n", f.Entry.Key(), f.Reason)
			}
			return fmt.Errorf("%d of %d entries failed verification",
				len(failures), len(g.Entries()))
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
