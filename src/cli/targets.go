package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"restic-backup/src/config"
)

func newTargetsCmd(stdout, stderr io.Writer) *cobra.Command {
	var initConfig bool
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the configured backup targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit, _ := cmd.Root().PersistentFlags().GetString("config")
			path, err := config.ResolvePath(explicit)
			if err != nil {
				return err
			}
			if initConfig {
				if err := config.Scaffold(path); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Wrote starter configuration to %s\n", path)
				return nil
			}
			registry, err := config.Load(path)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tLOCATION\tCREDENTIALS\tAUTO-CREATE\tCOMMENT")
			for _, t := range registry.Targets() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\t%s\n",
					t.Name, t.Kind, t.Location, t.Credential.Name, t.AutoCreate, t.Comment)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&initConfig, "init-config", false, "Write a starter configuration file and exit")
	return cmd
}
