package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"restic-backup/src/backup"
	"restic-backup/src/fault"
)

func newLsCmd(stdout, stderr io.Writer) *cobra.Command {
	var sel backup.Selector
	var snapshot string
	cmd := &cobra.Command{
		Use:   "ls TARGET [PATH]",
		Short: "Browse the contents of a snapshot",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			session, err := newSession(cmd, stderr, name)
			if err != nil {
				return err
			}
			listing, err := session.List(cmd.Context(), name, snapshot, path, sel)
			if err != nil {
				// Structured decoding is a convenience here; fall back
				// to the engine's own text when it fails.
				if fault.Is(err, fault.Parse) && listing.Raw != "" {
					fmt.Fprintln(stderr, "Warning: could not decode engine output, showing it verbatim")
					fmt.Fprint(stdout, listing.Raw)
					return nil
				}
				return err
			}
			if listing.SnapshotID != "" {
				fmt.Fprintf(stdout, "Snapshot %s\n", listing.SnapshotID)
			}
			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			for _, e := range listing.Entries {
				size := ""
				if e.Type == "file" {
					size = fmt.Sprintf("%d", e.Size)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Type, size, e.Path)
			}
			return tw.Flush()
		},
	}
	addSelectorFlags(cmd, &sel)
	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "", "Snapshot id to browse (default: latest)")
	return cmd
}
