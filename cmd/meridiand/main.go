// Meridiand is the controller daemon: it loads a fleet file, wires the
// reference datastore/schema/notification implementations to
// internal/rpc.Controller, and connects every enabled device before
// blocking until a shutdown signal arrives.
//
// This binary only exists to run the expanded spec's components end to
// end (SPEC_FULL.md §4.12); the wire-protocol northbound listener itself
// is external per spec.md's Non-goals — meridiand connects the fleet and
// keeps it alive, and meridianctl drives northbound operations against the
// same in-process Controller via the library surface, not over a socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meridian-net/meridian/internal/config"
	"github.com/meridian-net/meridian/internal/datastore/memstore"
	"github.com/meridian-net/meridian/internal/logctx"
	"github.com/meridian-net/meridian/internal/notify"
	"github.com/meridian-net/meridian/internal/notify/memorybus"
	"github.com/meridian-net/meridian/internal/notify/redisbus"
	"github.com/meridian-net/meridian/internal/rpc"
	"github.com/meridian-net/meridian/internal/schema"
	"github.com/meridian-net/meridian/internal/schema/flatset"
	"github.com/meridian-net/meridian/internal/version"
)

func main() {
	var (
		fleetPath   = flag.String("f", "meridian.yaml", "path to the fleet configuration file")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	if err := run(*fleetPath); err != nil {
		logctx.WithOperation("startup").Error(err)
		os.Exit(1)
	}
}

func run(fleetPath string) error {
	cfg, err := config.Load(fleetPath)
	if err != nil {
		return fmt.Errorf("meridiand: %w", err)
	}

	if err := logctx.SetLevel(cfg.LogLevel); err != nil {
		logctx.WithOperation("startup").Warnf("invalid log_level %q, keeping default: %v", cfg.LogLevel, err)
	}
	if cfg.LogFormat == "json" {
		logctx.SetJSONFormat()
	}

	bus, closeBus := buildBus(cfg)
	defer closeBus()

	store := memstore.New()
	parser := flatset.Parser{}
	cache := schema.Cache(newCache(cfg))

	ctrl, err := rpc.New(cfg, store, parser, cache, bus, rpc.SSHDialer)
	if err != nil {
		return fmt.Errorf("meridiand: %w", err)
	}

	logctx.WithOperation("startup").Infof("%s: fleet loaded from %s (%d devices)", version.Info(), fleetPath, len(cfg.Devices))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectEnabled(ctx, ctrl, cfg)

	<-ctx.Done()
	logctx.WithOperation("shutdown").Info("signal received, closing device sessions")
	disconnectAll(ctrl, cfg)
	return nil
}

// connectEnabled drives ConnectionChange{open} for every enabled device
// concurrently; a device that fails to connect is logged and left CLOSED
// rather than aborting the daemon (spec.md §4.6: per-device failure never
// cancels the rest of the fleet).
func connectEnabled(ctx context.Context, ctrl *rpc.Controller, cfg *config.Config) {
	for _, d := range cfg.Devices {
		if !d.IsEnabled() {
			continue
		}
		name := d.Name
		go func() {
			if err := ctrl.ConnectionChange(ctx, name, rpc.ConnOpen); err != nil {
				logctx.WithDevice(name).Warnf("initial connect failed: %v", err)
			}
		}()
	}
}

func disconnectAll(ctrl *rpc.Controller, cfg *config.Config) {
	for _, name := range cfg.Names() {
		_ = ctrl.ConnectionChange(context.Background(), name, rpc.ConnClose)
	}
}

func newCache(cfg *config.Config) *schema.FileCache {
	return schema.NewFileCache(cfg.SchemaDir)
}

// buildBus returns the configured notify.Bus and a matching cleanup func. A
// notify_addr of "memory" selects the in-memory bus so the daemon starts
// without a Redis instance for local demonstration; real deployments set
// notify_addr to a reachable Redis address.
func buildBus(cfg *config.Config) (notify.Bus, func()) {
	if cfg.NotifyAddr == "memory" {
		return memorybus.New(), func() {}
	}
	b := redisbus.New(cfg.NotifyAddr).WithChannel(cfg.NotifyChannel)
	return b, func() { _ = b.Close() }
}
