// Meridianctl is a noun-group CLI that drives internal/rpc.Controller
// in-process to exercise the controller's northbound surface end to end
// (SPEC_FULL.md §4.12). It is a demonstration harness grounded on the
// teacher's cmd/newtron noun-group pattern and pkg/cli table formatting —
// it is not the wire-protocol shell front-end spec.md's Non-goals exclude
// from the core; every fleet file given to it builds a fresh in-process
// Controller and connects nothing until a command asks it to.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meridian-net/meridian/internal/config"
	"github.com/meridian-net/meridian/internal/datastore/memstore"
	"github.com/meridian-net/meridian/internal/notify/memorybus"
	"github.com/meridian-net/meridian/internal/rpc"
	"github.com/meridian-net/meridian/internal/schema"
	"github.com/meridian-net/meridian/internal/schema/flatset"
	"github.com/meridian-net/meridian/internal/txn"
	"github.com/meridian-net/meridian/internal/version"
)

// app holds state shared across commands: the fleet file path and the
// Controller built from it in PersistentPreRunE.
type app struct {
	fleetPath string
	ctrl      *rpc.Controller
	cfg       *config.Config
}

var a = &app{}

func main() {
	root := &cobra.Command{
		Use:               "meridianctl",
		Short:             "Drive a meridian controller fleet from the command line",
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		Long: `Meridianctl loads a fleet file and exercises internal/rpc.Controller's
northbound operations in-process: connect devices, pull and diff their
configuration, and push edits as controller transactions.

  meridianctl -f fleet.yaml device list
  meridianctl -f fleet.yaml device connect leaf1
  meridianctl -f fleet.yaml pull 'leaf*'
  meridianctl -f fleet.yaml commit leaf1 --push VALIDATE
  meridianctl -f fleet.yaml diff leaf1 running candidate`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if isHelpOrVersion(cmd) {
				return nil
			}
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.fleetPath, "fleet", "f", "meridian.yaml", "path to the fleet configuration file")

	root.AddCommand(
		newDeviceCmd(),
		newPullCmd(),
		newCommitCmd(),
		newDiffCmd(),
		newTemplateCmd(),
		newTxnCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func isHelpOrVersion(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "version" {
			return true
		}
	}
	return false
}

// init loads the fleet file and builds a fresh in-process Controller backed
// by the reference memstore/flatset/memorybus implementations — enough to
// drive every RPC in SPEC_FULL.md §6 without external services, matching
// how the teacher's network.NewNetwork(specDir) builds CLI state once per
// invocation in PersistentPreRunE.
func (a *app) init() error {
	cfg, err := config.Load(a.fleetPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	store := memstore.New()
	parser := flatset.Parser{}
	cache := schema.Cache(schema.NewFileCache(cfg.SchemaDir))
	bus := memorybus.New()

	ctrl, err := rpc.New(cfg, store, parser, cache, bus, rpc.SSHDialer)
	if err != nil {
		return err
	}
	a.ctrl = ctrl
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Info())
		},
	}
}

// waitForTransaction polls the coordinator's bookkeeping for tid until it
// reaches a terminal state (spec.md §3: "a transaction is terminal exactly
// once") or pollTimeout elapses, then prints a one-line summary. The
// fan-out itself (internal/rpc.runFleetOp) launches participant goroutines
// and returns immediately, so a CLI invocation that wants to report the
// outcome has to observe completion the same way any other northbound
// client would: by reading back transaction state.
func waitForTransaction(tid uint64, err error) error {
	if err != nil {
		return err
	}
	const pollTimeout = 30 * time.Second
	const pollInterval = 20 * time.Millisecond

	deadline := time.Now().Add(pollTimeout)
	for {
		t, err := a.ctrl.Transaction(tid)
		if err != nil {
			return err
		}
		if t.State().Terminal() {
			printTxnResult(tid, t)
			if t.State() != txn.StateSuccess {
				return fmt.Errorf("transaction %d: %s", tid, t.State())
			}
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("transaction %d: timed out waiting for terminal state (last: %s)", tid, t.State())
		}
		time.Sleep(pollInterval)
	}
}

func printTxnResult(tid uint64, t *txn.Transaction) {
	fmt.Printf("transaction %d: %s", tid, t.State())
	if reason := t.Reason(); reason != "" {
		fmt.Printf(" (%s)", reason)
	}
	fmt.Println()
	for _, name := range t.Participants() {
		result, reason, ok := t.Result(name)
		if !ok {
			fmt.Printf("  %-20s pending\n", name)
			continue
		}
		if reason != "" {
			fmt.Printf("  %-20s %-8s %s\n", name, result, reason)
		} else {
			fmt.Printf("  %-20s %s\n", name, result)
		}
	}
}
