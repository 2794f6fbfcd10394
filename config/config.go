// Package config loads the YAML configuration for the controller and
// controlled daemons, mirroring the structured config wireguard-go's
// util/cfgGenerator tool loads (gopkg.in/yaml.v3, errors annotated with
// github.com/juju/errors).
package config

import (
	"os"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// Encryption carries the settings needed to build an envelope.Sealer.
// It is shared verbatim between the controller and controlled configs:
// both sides must agree on the key, context and time division.
type Encryption struct {
	Enabled      bool   `yaml:"enabled"`
	KeyPath      string `yaml:"key_path"`
	Context      string `yaml:"context"`
	TimeDivision uint64 `yaml:"time_division"`
}

// Transport names one of the two supported peer transports. Exactly one
// of Network or Unix should be set; which one is selected by Mode.
type Transport struct {
	Mode    string        `yaml:"mode"` // "network" or "unix"
	Network *NetworkPoint `yaml:"network,omitempty"`
	Unix    *UnixPoint    `yaml:"unix,omitempty"`
}

type NetworkPoint struct {
	Address string `yaml:"address"`
	Port    uint16 `yaml:"port"`
}

type UnixPoint struct {
	Path  string `yaml:"path"`
	Mode  uint32 `yaml:"mode,omitempty"`
	Owner int    `yaml:"owner,omitempty"`
	Group int    `yaml:"group,omitempty"`
}

// ControllerDevice is one physical device the controller reads from.
type ControllerDevice struct {
	DevicePath string `yaml:"device_path"`
	DeviceID   uint32 `yaml:"device_id"`
}

// Peer is one controlled peer the controller can route events to.
type Peer struct {
	Transport         Transport `yaml:"transport"`
	PostSwitchCommand string    `yaml:"postswitch_command,omitempty"`
}

// Controller is the full configuration of the controller daemon.
type Controller struct {
	Devices []ControllerDevice `yaml:"devices"`
	Peers   []Peer             `yaml:"peers"`

	SwitchableDevice uint32   `yaml:"switchable_device"`
	SwitchModifier   uint32   `yaml:"switch_modifier"`
	SwitchKey        uint32   `yaml:"switch_key"`
	PassthroughKeys  []uint32 `yaml:"passthrough_keys"`
	PassthroughClient int     `yaml:"passthrough_client"`

	Encryption Encryption `yaml:"encryption"`
}

// ControlledDevice is one synthetic device the controlled peer exposes.
// Capabilities replaces the original C config's two sentinel-separated
// parallel arrays with an explicit event-type -> codes mapping, per
// spec.md §9's design note.
type ControlledDevice struct {
	SymlinkPath  string           `yaml:"symlink_path,omitempty"`
	DisplayName  string           `yaml:"display_name"`
	DeviceID     uint32           `yaml:"device_id"`
	Capabilities map[uint32][]uint32 `yaml:"capabilities"`
}

// Controlled is the full configuration of the controlled daemon.
type Controlled struct {
	Listen  Transport          `yaml:"listen"`
	Devices []ControlledDevice `yaml:"devices"`

	Encryption Encryption `yaml:"encryption"`

	// RemoveSymlinkOnClose opts into deleting Devices[*].SymlinkPath on
	// clean shutdown. The original implementation never does this (see
	// spec.md §3/§9); default false preserves that behavior exactly.
	RemoveSymlinkOnClose bool `yaml:"remove_symlink_on_close,omitempty"`
}

// LoadController reads and parses a controller config file.
func LoadController(path string) (*Controller, error) {
	var c Controller
	if err := loadYAML(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadControlled reads and parses a controlled config file.
func LoadControlled(path string) (*Controlled, error) {
	var c Controlled
	if err := loadYAML(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Annotatef(err, "reading config %q", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.Annotatef(err, "parsing config %q", path)
	}
	return nil
}
