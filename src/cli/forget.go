package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"restic-backup/src/backup"
	"restic-backup/src/safety"
)

func newForgetCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts backup.ForgetOptions
	cmd := &cobra.Command{
		Use:   "forget TARGET",
		Short: "Drop a snapshot, or prune down to the most recent one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if opts.Snapshot == "" {
				ok, err := safety.Confirm(getSafetyOptions(cmd), cmd.InOrStdin(), stdout,
					fmt.Sprintf("Forget all but the most recent snapshot of target %s?", name))
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("forget aborted")
				}
			}
			session, err := newSession(cmd, stderr, name)
			if err != nil {
				return err
			}
			if _, err := session.Forget(cmd.Context(), name, opts); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Forget on target %s finished\n", name)
			return nil
		},
	}
	addSelectorFlags(cmd, &opts.Selector)
	cmd.Flags().StringVarP(&opts.Snapshot, "snapshot", "s", "", "Snapshot id to forget (default: keep only the most recent)")
	cmd.Flags().BoolVar(&opts.Prune, "prune", false, "Reclaim storage immediately")
	return cmd
}
