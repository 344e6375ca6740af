package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"restic-backup/src/backup"
)

func newSnapshotsCmd(stdout, stderr io.Writer) *cobra.Command {
	var sel backup.Selector
	var output string
	cmd := &cobra.Command{
		Use:   "snapshots TARGET",
		Short: "List snapshots in a target's repository, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			session, err := newSession(cmd, stderr, name)
			if err != nil {
				return err
			}
			snaps, err := session.Snapshots(cmd.Context(), name, sel)
			if err != nil {
				return err
			}
			switch output {
			case "json":
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(snaps)
			case "table", "":
				tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTIME\tTAGS\tPATHS")
				for _, s := range snaps {
					id := s.ShortID
					if id == "" {
						id = s.ID
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
						id, s.Time.Format("2006-01-02 15:04:05"),
						strings.Join(s.Tags, ","), strings.Join(s.Paths, ","))
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unsupported --output: %s", output)
			}
		},
	}
	addSelectorFlags(cmd, &sel)
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}
