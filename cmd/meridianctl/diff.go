package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/meridian-net/meridian/internal/cliutil"
	"github.com/meridian-net/meridian/internal/rpc"
)

// newDiffCmd wires the devname-scoped form of datastore-diff (spec.md §6:
// "{devname, config-type1, config-type2, format} -> returns list of <diff>
// bodies"). config-type is one of running, candidate, or synced.
func newDiffCmd() *cobra.Command {
	var xpath string
	cmd := &cobra.Command{
		Use:   "diff <devname> <config-type1> <config-type2>",
		Short: "Diff two configuration references for one device",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.ctrl.DatastoreDiff(context.Background(), rpc.DiffRequest{
				DevName:     args[0],
				ConfigType1: args[1],
				ConfigType2: args[2],
				XPath:       xpath,
			})
			if err != nil {
				return err
			}
			t := cliutil.NewTable("OP", "PATH", "VALUE")
			for _, e := range entries {
				t.Row(e.Op, e.Path, e.Value)
			}
			t.Flush()
			return nil
		},
	}
	cmd.Flags().StringVar(&xpath, "xpath", "", "scope the comparison to a subtree (not implemented, accepted for parity)")
	return cmd
}
