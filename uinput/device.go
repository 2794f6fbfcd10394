// Package uinput creates the controlled peer's synthetic input devices:
// one /dev/uinput-backed device per configured controlled device,
// declaring exactly the capabilities the config enumerates, and a
// WriteEvent path the replay loop uses to emit decoded frames.
//
// Grounded on the teacher's own raw ioctl style for kernel-facing
// device setup (tun_linux.go's SIOCGIFINDEX/SIOCSIFMTU via
// unix.Syscall(unix.SYS_IOCTL, ...)), generalized from a TUN netdevice
// to a uinput input device.
package uinput

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/inmpx/inmpx/config"
	"github.com/inmpx/inmpx/evcodes"
	"github.com/juju/errors"
)

const uinputPath = "/dev/uinput"

// rawEventSize matches evdevreader's struct input_event layout: this is
// the same wire shape in the opposite direction (write instead of read).
const rawEventSize = 24

// Device is one synthetic input device, optionally with a filesystem
// symlink that points at the uinput control path (see createSymlink).
type Device struct {
	DeviceID    uint32
	displayName string
	symlinkPath string
	removeLink  bool
	capabilities map[uint32][]uint32
	file        *os.File
}

// Set is the controlled peer's full collection of synthetic devices,
// looked up by DeviceID on replay.
type Set struct {
	devices []*Device
}

// Create opens /dev/uinput, declares cfg's capabilities, and brings the
// device up. A creation failure anywhere in this sequence is fatal, per
// spec.md §7 ("synthetic-device creation failure").
func Create(cfg config.ControlledDevice, removeLinkOnClose bool) (*Device, error) {
	file, err := os.OpenFile(uinputPath, os.O_WRONLY|os.O_NONBLOCK, 0)
	if err != nil {
		return nil, errors.Annotatef(err, "opening %s", uinputPath)
	}

	fd := int(file.Fd())

	// A config usually carries no capability entry for EV_SYN
	// (libevdev-style tooling auto-enables it too), but sync markers are
	// emitted on every device regardless, so it's declared unconditionally
	// here.
	if err := ioctlSetBit(fd, uiSetEvBit, evcodes.EV_SYN); err != nil {
		file.Close()
		return nil, errors.Annotatef(err, "declaring event type %#x on %s", evcodes.EV_SYN, cfg.DisplayName)
	}

	for evType, codes := range cfg.Capabilities {
		if err := ioctlSetBit(fd, uiSetEvBit, evType); err != nil {
			file.Close()
			return nil, errors.Annotatef(err, "declaring event type %#x on %s", evType, cfg.DisplayName)
		}
		bitReq, err := bitReqFor(evType)
		if err != nil {
			// Event types with no associated code bitmask (e.g. EV_SYN)
			// need no further declaration once UI_SET_EVBIT succeeds.
			continue
		}
		for _, code := range codes {
			if err := ioctlSetBit(fd, bitReq, code); err != nil {
				file.Close()
				return nil, errors.Annotatef(err, "declaring code %#x (type %#x) on %s", code, evType, cfg.DisplayName)
			}
		}
	}

	setup := uinputSetup{ID: inputID{BusType: 0x03, Vendor: 0x1209, Product: 0x0001, Version: 1}}
	name := cfg.DisplayName
	if len(name) >= uinputMaxNameSize {
		name = name[:uinputMaxNameSize-1]
	}
	copy(setup.Name[:], name)

	if err := ioctlDevSetup(fd, &setup); err != nil {
		file.Close()
		return nil, errors.Annotatef(err, "setting up device %s", cfg.DisplayName)
	}
	if err := ioctlDevCreate(fd); err != nil {
		file.Close()
		return nil, errors.Annotatef(err, "creating device %s", cfg.DisplayName)
	}

	if cfg.SymlinkPath != "" {
		if err := createSymlink(cfg.SymlinkPath); err != nil {
			ioctlDevDestroy(fd)
			file.Close()
			return nil, errors.Annotatef(err, "symlinking device %s", cfg.DisplayName)
		}
	}

	return &Device{
		DeviceID:     cfg.DeviceID,
		displayName:  cfg.DisplayName,
		symlinkPath:  cfg.SymlinkPath,
		removeLink:   removeLinkOnClose,
		capabilities: cfg.Capabilities,
		file:         file,
	}, nil
}

// bitReqFor maps an event type to the UI_SET_*BIT ioctl that declares
// individual codes for it. Types with no per-code bitmask (EV_SYN)
// return an error; the caller treats that as "nothing more to declare".
func bitReqFor(evType uint32) (uintptr, error) {
	switch evType {
	case evcodes.EV_KEY:
		return uiSetKeyBit, nil
	case evcodes.EV_REL:
		return uiSetRelBit, nil
	case evcodes.EV_MSC:
		return uiSetMscBit, nil
	default:
		return 0, fmt.Errorf("uinput: event type %#x has no per-code bitmask", evType)
	}
}

// Accepts reports whether (evType, code) was declared in this device's
// capability set, the capability gate spec.md §4.6/§8 property 7
// requires.
func (d *Device) Accepts(evType, code uint32) bool {
	if evType == evcodes.EV_SYN {
		return true
	}
	codes, ok := d.capabilities[evType]
	if !ok {
		return false
	}
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// WriteEvent emits one (type, code, value) tuple on the device. A write
// error here is fatal per spec.md §7 ("indicates the kernel-facing side
// is unusable").
func (d *Device) WriteEvent(evType, code uint32, value int32) error {
	var buf [rawEventSize]byte
	binary.LittleEndian.PutUint16(buf[16:18], uint16(evType))
	binary.LittleEndian.PutUint16(buf[18:20], uint16(code))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(value))
	if _, err := d.file.Write(buf[:]); err != nil {
		return fmt.Errorf("uinput: writing event to %s: %w", d.displayName, err)
	}
	return nil
}

// Close tears the device down. The symlink is removed only if the
// device was created with removeLinkOnClose — see
// config.Controlled.RemoveSymlinkOnClose.
func (d *Device) Close() error {
	fd := int(d.file.Fd())
	destroyErr := ioctlDevDestroy(fd)
	closeErr := d.file.Close()

	if d.symlinkPath != "" && d.removeLink {
		os.Remove(d.symlinkPath)
	}

	if destroyErr != nil {
		return destroyErr
	}
	return closeErr
}

func createSymlink(path string) error {
	os.Remove(path)
	// The kernel names the synthetic device's event node only after
	// UI_DEV_CREATE, and this function does not look that node up: the
	// symlink points at the uinput control path itself, not at the
	// device's own event node.
	return os.Symlink(uinputPath, path)
}

// NewSet builds every configured device, in order. If any device fails
// to create, every previously created device in this call is torn down
// before returning the error.
func NewSet(cfg *config.Controlled) (*Set, error) {
	set := &Set{}
	for _, devCfg := range cfg.Devices {
		dev, err := Create(devCfg, cfg.RemoveSymlinkOnClose)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.devices = append(set.devices, dev)
	}
	return set, nil
}

// Lookup finds the device with the given DeviceID by linear scan, which
// spec.md §4.6 explicitly blesses for the small device counts this
// system expects.
func (s *Set) Lookup(deviceID uint32) *Device {
	for _, d := range s.devices {
		if d.DeviceID == deviceID {
			return d
		}
	}
	return nil
}

// Close tears down every device in the set, continuing past individual
// failures and returning the first one encountered.
func (s *Set) Close() error {
	var first error
	for _, d := range s.devices {
		if err := d.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
