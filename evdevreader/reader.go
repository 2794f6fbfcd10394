// Package evdevreader implements the controller's physical device
// reader: exclusive acquisition of one /dev/input/eventX node and a
// blocking stream of the key/relative-axis/sync events it produces.
//
// This is the Go analogue of open_device/handle_one_device_thread in
// the original C controller: libevdev_new_from_fd + libevdev_grab
// becomes an O_RDWR open plus an EVIOCGRAB ioctl, and
// libevdev_next_event becomes a blocking read of the kernel's 24-byte
// struct input_event, decoded the way bnema/uinputd-go's
// InputEvent.Marshal encodes it (same field layout, opposite
// direction).
package evdevreader

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// rawEventSize is sizeof(struct input_event) on a 64-bit Linux host:
// a 16-byte timeval, a 16-bit type, a 16-bit code, and a 32-bit value.
const rawEventSize = 24

// Event is one decoded physical input event.
type Event struct {
	Type  uint32
	Code  uint32
	Value int32
}

// Device is one exclusively-grabbed physical input device.
type Device struct {
	Path string
	file *os.File
}

// Open acquires the device at path in read/write mode and requests
// exclusive (grabbed) access, so events stop reaching the local
// session. Failure to grab is fatal for this device per spec.md §4.1.
func Open(path string) (*Device, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if err := unix.IoctlSetInt(int(file.Fd()), unix.EVIOCGRAB, 1); err != nil {
		file.Close()
		return nil, fmt.Errorf("grabbing %s: %w", path, err)
	}

	return &Device{Path: path, file: file}, nil
}

// ReadEvent blocks until the next input event is available and decodes
// it. Every event is returned, EV_SYN included; routing each one is the
// dispatcher's job.
func (d *Device) ReadEvent() (Event, error) {
	var buf [rawEventSize]byte
	if _, err := readFull(d.file, buf[:]); err != nil {
		return Event{}, err
	}
	return Event{
		Type:  uint32(binary.LittleEndian.Uint16(buf[16:18])),
		Code:  uint32(binary.LittleEndian.Uint16(buf[18:20])),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}, nil
}

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, fmt.Errorf("evdevreader: short read")
		}
		total += n
	}
	return total, nil
}

// Close releases the device. The kernel releases the exclusive grab
// itself once the file descriptor closes, the same simplifying
// assumption the original implementation's main() comment makes.
func (d *Device) Close() error {
	return d.file.Close()
}
