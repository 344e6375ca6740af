package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newUnlockCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock TARGET",
		Short: "Remove stale locks from a target's repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			session, err := newSession(cmd, stderr, name)
			if err != nil {
				return err
			}
			if _, err := session.Unlock(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Repository for target %s is unlocked\n", name)
			return nil
		},
	}
}
