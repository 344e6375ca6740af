package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init TARGET",
		Short: "Initialize the repository for a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			session, err := newSession(cmd, stderr, name)
			if err != nil {
				return err
			}
			if err := session.Init(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Repository for target %s is initialized\n", name)
			return nil
		},
	}
}
