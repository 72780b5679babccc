package main

import (
	"context"

	"github.com/spf13/cobra"
)

// newPullCmd wires config-pull (spec.md §6: "config-pull{devname,
// transient?} -> returns {tid}").
func newPullCmd() *cobra.Command {
	var transient bool
	cmd := &cobra.Command{
		Use:   "pull <devname-pattern>",
		Short: "Pull running configuration from matching devices into the controller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tid, err := a.ctrl.ConfigPull(context.Background(), args[0], transient)
			return waitForTransaction(tid, err)
		},
	}
	cmd.Flags().BoolVar(&transient, "transient", false, "discard the pulled tree, leaving synced_xml and the datastore unchanged")
	return cmd
}
