// Package config loads the controller's fleet configuration: the list of
// managed devices, their transport parameters, and the timeouts and
// defaults that govern the device state machine and push behavior
// (SPEC_FULL.md §4.10). Grounded on the teacher's scenario-file
// read/unmarshal/apply-defaults shape (pkg/newtest/parser.go), generalized
// from a test-scenario file to a fleet file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDeviceTimeout is the transient-state timeout applied when a device
// entry does not override it (spec.md §4.3: "default 60 s, configurable").
const DefaultDeviceTimeout = 60 * time.Second

// DefaultMountRoot is the datastore path prefix a device's schema set is
// attached under when the config leaves MountRoot empty (spec.md §1:
// "mounting them under a per-device subtree of the global datastore").
const DefaultMountRoot = "/devices"

// DefaultSchemaDir is the on-disk directory schema module sources are
// cached in (spec.md §6: "YANG_SCHEMA_MOUNT_DIR").
const DefaultSchemaDir = "/var/lib/meridian/schema"

// DefaultNotifyAddr is the Redis address the notification bus connects to
// when unset.
const DefaultNotifyAddr = "127.0.0.1:6379"

// ConfigState names the push depth a device edit is driven to, matching the
// wire values of device.ConfigState (spec.md §3).
type ConfigState string

const (
	ConfigStateClosed   ConfigState = "closed"
	ConfigStateYANGOnly ConfigState = "yang-only"
	ConfigStateValidate ConfigState = "validate"
)

// DeviceConfig is one fleet entry (spec.md §3 Device data model).
type DeviceConfig struct {
	Name     string      `yaml:"name"`
	Address  string      `yaml:"address"`
	Username string      `yaml:"username,omitempty"`
	Password string      `yaml:"password,omitempty"`
	KeyFile  string      `yaml:"key_file,omitempty"`
	ConnType string      `yaml:"conn_type,omitempty"` // only "ssh" is implemented
	Enabled  *bool       `yaml:"enabled,omitempty"`   // nil means true
	Timeout  string      `yaml:"timeout,omitempty"`   // overrides DeviceTimeout, e.g. "90s"
	Config   ConfigState `yaml:"config_state,omitempty"`
}

// IsEnabled reports whether the device entry should have a handle created
// (spec.md §3: "A device handle exists iff its name is present in the
// controller's running configuration or it was created in response to an
// enabled=false placeholder" — either way a handle is created; Enabled
// governs whether the controller dials it).
func (d DeviceConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// ResolvedTimeout parses Timeout, falling back to fallback when unset or
// unparseable.
func (d DeviceConfig) ResolvedTimeout(fallback time.Duration) time.Duration {
	if d.Timeout == "" {
		return fallback
	}
	dur, err := time.ParseDuration(d.Timeout)
	if err != nil {
		return fallback
	}
	return dur
}

// Config is the controller's whole fleet configuration (SPEC_FULL.md
// §4.10): device list, the scalar device-timeout (spec.md §5), the schema
// mount directory, the notification bus address, and logging defaults.
type Config struct {
	Devices []DeviceConfig `yaml:"devices"`

	DeviceTimeout string `yaml:"device_timeout,omitempty"`
	MountRoot     string `yaml:"mount_root,omitempty"`
	SchemaDir     string `yaml:"schema_dir,omitempty"`
	NotifyAddr    string `yaml:"notify_addr,omitempty"`
	NotifyChannel string `yaml:"notify_channel,omitempty"`

	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"` // "text" (default) or "json"
}

// Load reads and parses a fleet file from path, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("devices[%d]: name is required", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("devices[%d]: duplicate device name %q", i, d.Name)
		}
		seen[d.Name] = true
		if d.Address == "" {
			return fmt.Errorf("device %s: address is required", d.Name)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DeviceTimeout == "" {
		c.DeviceTimeout = DefaultDeviceTimeout.String()
	}
	if c.MountRoot == "" {
		c.MountRoot = DefaultMountRoot
	}
	if c.SchemaDir == "" {
		c.SchemaDir = DefaultSchemaDir
	}
	if c.NotifyAddr == "" {
		c.NotifyAddr = DefaultNotifyAddr
	}
	if c.NotifyChannel == "" {
		c.NotifyChannel = "meridian.transactions"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	for i := range c.Devices {
		if c.Devices[i].ConnType == "" {
			c.Devices[i].ConnType = "ssh"
		}
	}
}

// DeviceTimeoutDuration parses DeviceTimeout, falling back to
// DefaultDeviceTimeout if it is empty or unparseable.
func (c *Config) DeviceTimeoutDuration() time.Duration {
	if c.DeviceTimeout == "" {
		return DefaultDeviceTimeout
	}
	d, err := time.ParseDuration(c.DeviceTimeout)
	if err != nil {
		return DefaultDeviceTimeout
	}
	return d
}

// MountPoint returns the datastore mount point for a device name (spec.md
// §1, §4.3).
func (c *Config) MountPoint(deviceName string) string {
	return c.MountRoot + "/" + deviceName
}

// Find returns the DeviceConfig for name, or false if not present.
func (c *Config) Find(name string) (DeviceConfig, bool) {
	for _, d := range c.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return DeviceConfig{}, false
}

// Names returns every configured device name, in file order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Devices))
	for i, d := range c.Devices {
		names[i] = d.Name
	}
	return names
}
