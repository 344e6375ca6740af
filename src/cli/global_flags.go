package cli

import (
	"time"

	"github.com/spf13/cobra"

	"restic-backup/src/safety"
)

// addGlobalFlags adds the persistent flags shared by all operations.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Configuration file (default $RESTIC_BACKUP_CONFIG or ~/.config/restic-backup/config.yaml)")
	cmd.PersistentFlags().BoolP("batch", "b", false, "Non-interactive mode: no prompts, quiet engine output")
	cmd.PersistentFlags().Bool("dry-run", false, "Show planned actions without making changes")
	cmd.PersistentFlags().BoolP("yes", "y", false, "Assume 'yes' to confirmation prompts")
	cmd.PersistentFlags().Duration("timeout", 0, "Kill the engine after this duration (0 means no limit)")
	cmd.PersistentFlags().String("pgp-keyring", "", "Decrypt PGP credentials with this keyring file instead of gpg")
}

func getSafetyOptions(cmd *cobra.Command) safety.Options {
	flags := cmd.Root().PersistentFlags()
	dry, _ := flags.GetBool("dry-run")
	yes, _ := flags.GetBool("yes")
	batch, _ := flags.GetBool("batch")
	return safety.Options{DryRun: dry, Yes: yes, Batch: batch}
}

func getTimeout(cmd *cobra.Command) time.Duration {
	d, _ := cmd.Root().PersistentFlags().GetDuration("timeout")
	return d
}
