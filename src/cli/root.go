package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"restic-backup/src/fault"
)

// NewRootCmd returns the root cobra command.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "restic-backup",
		Short:         "Back up to per host/user/year restic repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	cmd.AddCommand(newVersionCmd(stdout))
	cmd.AddCommand(newTargetsCmd(stdout, stderr))
	cmd.AddCommand(newInitCmd(stdout, stderr))
	cmd.AddCommand(newBackupCmd(stdout, stderr))
	cmd.AddCommand(newRestoreCmd(stdout, stderr))
	cmd.AddCommand(newUnlockCmd(stdout, stderr))
	cmd.AddCommand(newSnapshotsCmd(stdout, stderr))
	cmd.AddCommand(newLsCmd(stdout, stderr))
	cmd.AddCommand(newFindCmd(stdout, stderr))
	cmd.AddCommand(newForgetCmd(stdout, stderr))

	return cmd
}

// Execute runs the CLI with the process stdio and returns the exit
// code: 0 on success, the engine's own code for engine failures, and
// the distinguished internal code for everything that never reached it.
func Execute() int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fault.ExitCode(err)
	}
	return 0
}
