package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newTxnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txn",
		Short: "Allocate, cancel, or inspect controller transactions directly",
	}
	cmd.AddCommand(newTxnNewCmd(), newTxnCancelCmd(), newTxnStatusCmd())
	return cmd
}

// newTxnNewCmd wires transaction-new (spec.md §6: "transaction-new{origin}
// -> returns {id}"). The allocated transaction has no participants and no
// command here attaches any or starts it; it stays in INIT.
func newTxnNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <origin>",
		Short: "Allocate a fresh transaction id with no attached participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tid := a.ctrl.TransactionNew(args[0])
			fmt.Println(tid)
			return nil
		},
	}
}

// newTxnCancelCmd wires transaction-error (spec.md §6: "transaction-error
// {tid, origin, reason} -> terminates a transaction").
func newTxnCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <tid> <origin> <reason>",
		Short: "Cancel a running transaction, aborting every in-flight participant",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			tid, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("txn cancel: invalid tid %q: %w", args[0], err)
			}
			if err := a.ctrl.TransactionError(tid, args[1], args[2]); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func newTxnStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <tid>",
		Short: "Print a transaction's current state and per-participant results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tid, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("txn status: invalid tid %q: %w", args[0], err)
			}
			t, err := a.ctrl.Transaction(tid)
			if err != nil {
				return err
			}
			printTxnResult(tid, t)
			return nil
		},
	}
}
