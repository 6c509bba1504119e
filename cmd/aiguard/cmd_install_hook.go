package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const hookScript = `#!/bin/sh
# Block commits that modify protected regions without re-approval.
aiguard verify || exit 1
`

const hookAppend = `
# Block commits that modify protected regions without re-approval.
aiguard verify || exit 1
`

func newInstallHookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install-hook",
		Short: "Install a git pre-commit hook that runs aiguard verify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := findRoot(".")

			gitDir := filepath.Join(root, ".git")
			if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
				return fmt.Errorf("no .git directory at %s", root)
			}

			hooksDir := filepath.Join(gitDir, "hooks")
			if err := os.MkdirAll(hooksDir, 0o755); err != nil {
				return fmt.Errorf("install hook: %w", err)
			}
			hookPath := filepath.Join(hooksDir, "pre-commit")

			out := cmd.OutOrStdout()
			existing, err := os.ReadFile(hookPath)
			switch {
			case err == nil && strings.Contains(string(existing), "aiguard"):
				fmt.Fprintf(out, "pre-commit hook already runs aiguard\n")
				return nil
			case err == nil:
				if err := os.WriteFile(hookPath, append(existing, []byte(hookAppend)...), 0o755); err != nil {
					return fmt.Errorf("install hook: %w", err)
				}
				fmt.Fprintf(out, "appended aiguard verify to %s\n", hookPath)
				return nil
			default:
				if err := os.WriteFile(hookPath, []byte(hookScript), 0o755); err != nil {
					return fmt.Errorf("install hook: %w", err)
				}
				fmt.Fprintf(out, "installed %s\n", hookPath)
				return nil
			}
		},
	}
}
