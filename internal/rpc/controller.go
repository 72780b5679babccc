// Package rpc is the controller's northbound facade: the Go-level surface
// exposing spec.md §6's RPCs as methods on Controller. It owns no protocol
// state itself — it wires internal/device, internal/devfsm, internal/txn,
// internal/datastore, internal/schema, and internal/notify together and
// drives one devfsm.Machine per participating device. Grounded on the
// teacher's network.Network facade (pkg/network/network.go), which plays
// the same "one object fronting the whole fleet" role for newtron's CLI.
package rpc

import (
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/meridian-net/meridian/internal/config"
	"github.com/meridian-net/meridian/internal/credentials"
	"github.com/meridian-net/meridian/internal/datastore"
	"github.com/meridian-net/meridian/internal/device"
	"github.com/meridian-net/meridian/internal/devfsm"
	"github.com/meridian-net/meridian/internal/notify"
	"github.com/meridian-net/meridian/internal/schema"
	"github.com/meridian-net/meridian/internal/transport"
	"github.com/meridian-net/meridian/internal/txn"
)

// Dialer opens a framed transport channel to a device. The production
// implementation wraps transport.Dial; tests substitute an in-memory fake
// (devfsm.FrameChannel is the surface both must satisfy).
type Dialer interface {
	Dial(address string, creds transport.Credentials, timeout time.Duration) (devfsm.FrameChannel, error)
}

type sshDialer struct{}

func (sshDialer) Dial(address string, creds transport.Credentials, timeout time.Duration) (devfsm.FrameChannel, error) {
	return transport.Dial(address, creds, timeout)
}

// SSHDialer is the Dialer every real deployment uses.
var SSHDialer Dialer = sshDialer{}

// Controller is the northbound facade: one instance serves the whole fleet
// named in cfg (spec.md §6's RPC boundary).
type Controller struct {
	cfg      *config.Config
	registry *device.Registry
	coord    *txn.Coordinator
	store    datastore.Store
	parser   schema.Parser
	cache    schema.Cache
	dialer   Dialer

	mu       sync.Mutex
	machines map[string]*devfsm.Machine
}

// New builds a Controller with one CLOSED handle per device named in cfg
// (spec.md §3: "Initial state on handle creation: CLOSED"). Nothing is
// dialed until ConnectionChange opens a device.
func New(cfg *config.Config, store datastore.Store, parser schema.Parser, cache schema.Cache, bus notify.Bus, dialer Dialer) (*Controller, error) {
	if dialer == nil {
		dialer = SSHDialer
	}
	registry := device.NewRegistry()
	for _, d := range cfg.Devices {
		h, err := registry.Create(d.Name, d.Address, d.Username, device.ConnType(d.ConnType))
		if err != nil {
			return nil, fmt.Errorf("rpc: building fleet: %w", err)
		}
		h.SetEnabled(d.IsEnabled())
		h.SetConfigState(configStateFromWire(d.Config))
	}
	return &Controller{
		cfg:      cfg,
		registry: registry,
		coord:    txn.New(registry, bus),
		store:    store,
		parser:   parser,
		cache:    cache,
		dialer:   dialer,
		machines: make(map[string]*devfsm.Machine),
	}, nil
}

func configStateFromWire(s config.ConfigState) device.ConfigState {
	switch s {
	case config.ConfigStateYANGOnly:
		return device.ConfigYANGOnly
	case config.ConfigStateValidate:
		return device.ConfigValidate
	default:
		return device.ConfigClosed
	}
}

// Registry exposes the device registry for read-only inspection (CLI
// listing, status reporting).
func (c *Controller) Registry() *device.Registry { return c.registry }

// Transaction returns the coordinator's bookkeeping for tid, for status
// queries outside the RPC methods that created it.
func (c *Controller) Transaction(tid uint64) (*txn.Transaction, error) {
	return c.coord.Get(tid)
}

// expandDevices resolves a devname pattern (possibly containing * or ?)
// against the configured fleet (spec.md §6: devname glob expansion happens
// before attaching participants).
func (c *Controller) expandDevices(pattern string) ([]string, error) {
	var matched []string
	for _, n := range c.registry.Names() {
		ok, err := path.Match(pattern, n)
		if err != nil {
			return nil, fmt.Errorf("rpc: invalid devname pattern %q: %w", pattern, err)
		}
		if ok {
			matched = append(matched, n)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("rpc: devname %q matches no configured device", pattern)
	}
	return matched, nil
}

// machineFor returns the live devfsm.Machine for name, or an error if the
// device has never been dialed in this process.
func (c *Controller) machineFor(name string) (*devfsm.Machine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.machines[name]
	if !ok {
		return nil, fmt.Errorf("rpc: device %s has no active session", name)
	}
	return m, nil
}

// dial resolves credentials, opens a transport channel, and builds a
// devfsm.Machine for name, without driving it through Connect.
func (c *Controller) dial(name string) (*devfsm.Machine, error) {
	h, err := c.registry.Find(name)
	if err != nil {
		return nil, err
	}
	dc, _ := c.cfg.Find(name)

	src := credentials.Source{Username: dc.Username, Password: dc.Password}
	if dc.KeyFile != "" {
		pem, err := os.ReadFile(dc.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("rpc: reading key file for %s: %w", name, err)
		}
		src.PrivateKeyPEM = pem
	}
	creds, err := credentials.Resolve(name, src)
	if err != nil {
		return nil, err
	}

	timeout := dc.ResolvedTimeout(c.cfg.DeviceTimeoutDuration())
	conn, err := c.dialer.Dial(h.Address, creds, timeout)
	if err != nil {
		return nil, fmt.Errorf("rpc: dialing %s: %w", name, err)
	}
	m := devfsm.New(h, conn, c.parser, c.cache, c.store, timeout)

	c.mu.Lock()
	c.machines[name] = m
	c.mu.Unlock()
	return m, nil
}

func (c *Controller) dropMachine(name string) {
	c.mu.Lock()
	delete(c.machines, name)
	c.mu.Unlock()
}
