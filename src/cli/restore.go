package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"restic-backup/src/backup"
	"restic-backup/src/safety"
)

func newRestoreCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts backup.RestoreOptions
	cmd := &cobra.Command{
		Use:   "restore TARGET",
		Short: "Restore a snapshot into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if opts.Dest == "" {
				return errors.New("--dest is required")
			}
			safetyOpts := getSafetyOptions(cmd)
			if entries, err := os.ReadDir(opts.Dest); err == nil && len(entries) > 0 {
				ok, err := safety.Confirm(safetyOpts, cmd.InOrStdin(), stdout,
					fmt.Sprintf("Destination %s is not empty; existing files may be overwritten. Continue?", opts.Dest))
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("restore aborted")
				}
			}
			session, err := newSession(cmd, stderr, name)
			if err != nil {
				return err
			}
			if _, err := session.Restore(cmd.Context(), name, opts); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Restore from target %s into %s finished\n", name, opts.Dest)
			return nil
		},
	}
	addSelectorFlags(cmd, &opts.Selector)
	cmd.Flags().StringVarP(&opts.Snapshot, "snapshot", "s", "", "Snapshot id to restore (default: latest)")
	cmd.Flags().StringVarP(&opts.Dest, "dest", "d", "", "Existing directory to restore into")
	return cmd
}
