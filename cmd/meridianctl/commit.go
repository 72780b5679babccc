package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-net/meridian/internal/rpc"
)

// newCommitCmd wires controller-commit (spec.md §6: "controller-commit
// {device, source=running|candidate, actions=NONE|CHANGE|FORCE,
// push=NONE|VALIDATE|COMMIT, service-instance?} -> returns {tid}").
func newCommitCmd() *cobra.Command {
	var (
		source          string
		actions         string
		push            string
		serviceInstance string
	)
	cmd := &cobra.Command{
		Use:   "commit <devname-pattern>",
		Short: "Diff and push the controller's staged configuration to matching devices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := rpc.Source(source)
			if src != rpc.SourceRunning && src != rpc.SourceCandidate {
				return fmt.Errorf("commit: --source must be %q or %q", rpc.SourceRunning, rpc.SourceCandidate)
			}
			act := rpc.Actions(actions)
			p := rpc.Push(push)
			tid, err := a.ctrl.ControllerCommit(context.Background(), args[0], src, act, p, serviceInstance)
			return waitForTransaction(tid, err)
		},
	}
	cmd.Flags().StringVar(&source, "source", string(rpc.SourceRunning), "controller-side reference: running or candidate")
	cmd.Flags().StringVar(&actions, "actions", string(rpc.ActionsChange), "NONE, CHANGE, or FORCE")
	cmd.Flags().StringVar(&push, "push", string(rpc.PushCommit), "NONE, VALIDATE, or COMMIT")
	cmd.Flags().StringVar(&serviceInstance, "service-instance", "", "scope the edit to one service instance")
	return cmd
}
