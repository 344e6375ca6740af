package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"restic-backup/src/backup"
)

func newBackupCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts backup.BackupOptions
	cmd := &cobra.Command{
		Use:   "backup TARGET",
		Short: "Back up the target's scope into its repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			session, err := newSession(cmd, stderr, name)
			if err != nil {
				return err
			}
			if _, err := session.Backup(cmd.Context(), name, opts); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Backup to target %s finished\n", name)
			return nil
		},
	}
	addSelectorFlags(cmd, &opts.Selector)
	cmd.Flags().BoolVar(&opts.AutoCreate, "auto-create", false, "Initialize the repository first if it is missing")
	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "Tag the snapshot (repeatable)")
	return cmd
}

// addSelectorFlags adds the host/user/year override flags shared by the
// commands that can address another machine's repository.
func addSelectorFlags(cmd *cobra.Command, sel *backup.Selector) {
	cmd.Flags().StringVar(&sel.Host, "host", "", "Repository host segment (default: this machine)")
	cmd.Flags().StringVar(&sel.User, "user", "", "Repository user segment (default: current user)")
	cmd.Flags().StringVar(&sel.Year, "year", "", "Repository year segment (default: current year)")
}
