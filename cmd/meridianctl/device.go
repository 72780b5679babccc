package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-net/meridian/internal/cliutil"
	"github.com/meridian-net/meridian/internal/rpc"
)

func newDeviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect and manage fleet device connections",
	}
	cmd.AddCommand(
		newDeviceListCmd(),
		newDeviceConnCmd("connect", rpc.ConnOpen),
		newDeviceConnCmd("disconnect", rpc.ConnClose),
		newDeviceConnCmd("reconnect", rpc.ConnReconnect),
	)
	return cmd
}

// newDeviceListCmd prints the registry's view of every configured device
// (spec.md §3 Device fields), grounded on the teacher's pkg/cli.Table usage
// in cmd_device.go's device list output.
func newDeviceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured devices and their connection state",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := cliutil.NewTable("NAME", "ADDRESS", "STATE", "ENABLED", "LOG").
				WithStatusColumn(2, cliutil.ConnStateColor)
			for _, h := range a.ctrl.Registry().List() {
				enabled := "yes"
				if !h.Enabled() {
					enabled = "no"
				}
				t.Row(h.Name, h.Address, h.ConnState().String(), enabled, h.LogMsg())
			}
			t.Flush()
			return nil
		},
	}
}

// newDeviceConnCmd builds one of the connect/disconnect/reconnect noun-group
// leaves, all driving the same ConnectionChange RPC (spec.md §6:
// "connection-change{devname, operation=open|close|reconnect} -> returns
// ok") with devname glob expansion handled inside the Controller.
func newDeviceConnCmd(use string, op rpc.ConnOperation) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <devname-pattern>",
		Short: use + " devices matching a glob pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctrl.ConnectionChange(context.Background(), args[0], op); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}
