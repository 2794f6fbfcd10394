package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inmpx/inmpx/evcodes"
)

const controllerYAML = `
devices:
  - device_path: /dev/input/by-path/platform-i8042-serio-0-event-kbd
    device_id: 0x4B425244
  - device_path: /dev/input/by-path/platform-i8042-serio-1-event-mouse
    device_id: 0x4D4F5553
peers:
  - transport:
      mode: network
      network:
        address: 127.0.0.1
        port: 63333
    postswitch_command: "ddcutil --bus=2 setvcp 60 0x0F"
  - transport:
      mode: unix
      unix:
        path: /tmp/inmpx-controlled.socket
switchable_device: 0x4B425244
switch_modifier: 97
switch_key: 70
passthrough_keys: [126]
passthrough_client: 0
encryption:
  enabled: true
  key_path: ./key
  context: "!INMPX!"
  time_division: 1
`

func TestLoadController(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "controller.yaml")
	if err := os.WriteFile(path, []byte(controllerYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadController(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(c.Devices))
	}
	if c.Devices[0].DeviceID != 0x4B425244 {
		t.Errorf("device id = %#x, want 0x4B425244", c.Devices[0].DeviceID)
	}
	if len(c.Peers) != 2 {
		t.Fatalf("got %d peers, want 2", len(c.Peers))
	}
	if c.Peers[0].Transport.Mode != "network" || c.Peers[0].Transport.Network.Port != 63333 {
		t.Errorf("peer 0 transport = %+v", c.Peers[0].Transport)
	}
	if c.Peers[1].Transport.Mode != "unix" || c.Peers[1].Transport.Unix.Path != "/tmp/inmpx-controlled.socket" {
		t.Errorf("peer 1 transport = %+v", c.Peers[1].Transport)
	}
	if c.SwitchModifier != evcodes.KEY_RIGHTCTRL || c.SwitchKey != evcodes.KEY_SCROLLLOCK {
		t.Errorf("switch keys = (%d, %d), want (%d, %d)", c.SwitchModifier, c.SwitchKey, evcodes.KEY_RIGHTCTRL, evcodes.KEY_SCROLLLOCK)
	}
	if !c.Encryption.Enabled || c.Encryption.TimeDivision != 1 {
		t.Errorf("encryption = %+v", c.Encryption)
	}
}

const controlledYAML = `
listen:
  mode: network
  network:
    address: 0.0.0.0
    port: 63333
devices:
  - display_name: inmpx keyboard
    device_id: 0x4B425244
    capabilities:
      1: [30, 97, 70]
      4: [4]
encryption:
  enabled: true
  key_path: ./key
  context: "!INMPX!"
  time_division: 1
`

func TestLoadControlled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "controlled.yaml")
	if err := os.WriteFile(path, []byte(controlledYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadControlled(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Listen.Mode != "network" || c.Listen.Network.Port != 63333 {
		t.Errorf("listen = %+v", c.Listen)
	}
	if len(c.Devices) != 1 || c.Devices[0].DisplayName != "inmpx keyboard" {
		t.Fatalf("devices = %+v", c.Devices)
	}
	codes := c.Devices[0].Capabilities[evcodes.EV_KEY]
	if len(codes) != 3 {
		t.Errorf("EV_KEY capabilities = %v, want 3 entries", codes)
	}
	if c.RemoveSymlinkOnClose {
		t.Errorf("RemoveSymlinkOnClose default should be false")
	}
}

func TestLoadControllerMissingFile(t *testing.T) {
	if _, err := LoadController(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
