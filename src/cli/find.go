package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"restic-backup/src/backup"
	"restic-backup/src/fault"
)

func newFindCmd(stdout, stderr io.Writer) *cobra.Command {
	var sel backup.Selector
	cmd := &cobra.Command{
		Use:   "find TARGET PATTERN",
		Short: "Search the target's snapshots for matching paths",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, pattern := args[0], args[1]
			session, err := newSession(cmd, stderr, name)
			if err != nil {
				return err
			}
			matches, err := session.Search(cmd.Context(), name, pattern, sel)
			if err != nil {
				if fault.Is(err, fault.Parse) && matches.Raw != "" {
					fmt.Fprintln(stderr, "Warning: could not decode engine output, showing it verbatim")
					fmt.Fprint(stdout, matches.Raw)
					return nil
				}
				return err
			}
			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			for _, g := range matches.Groups {
				for _, m := range g.Matches {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", g.SnapshotID, m.Type, m.Path)
				}
			}
			return tw.Flush()
		},
	}
	addSelectorFlags(cmd, &sel)
	return cmd
}
