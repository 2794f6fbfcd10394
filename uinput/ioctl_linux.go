package uinput

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// uinput ioctl numbers, from linux/uinput.h. golang.org/x/sys/unix does
// not export these (they are specific to this one character device), so
// they are named here the same way tun_linux.go names SIOCGIFINDEX-style
// constants it also has to carry itself.
const (
	uiSetEvBit  = 0x40045564
	uiSetKeyBit = 0x40045565
	uiSetRelBit = 0x40045566
	uiDevCreate = 0x5501
	uiDevDestroy = 0x5502
	uiDevSetup  = 0x405c5503
	uiSetMscBit = 0x40045568

	uinputMaxNameSize = 80
)

// uinputSetup mirrors struct uinput_setup from linux/uinput.h.
type uinputSetup struct {
	ID          inputID
	Name        [uinputMaxNameSize]byte
	FFEffectsMax uint32
}

// inputID mirrors struct input_id.
type inputID struct {
	BusType uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

func ioctl(fd int, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlSetBit(fd int, req uintptr, bit uint32) error {
	return ioctl(fd, req, uintptr(bit))
}

func ioctlDevSetup(fd int, setup *uinputSetup) error {
	return ioctl(fd, uiDevSetup, uintptr(unsafe.Pointer(setup)))
}

func ioctlDevCreate(fd int) error {
	return ioctl(fd, uiDevCreate, 0)
}

func ioctlDevDestroy(fd int) error {
	return ioctl(fd, uiDevDestroy, 0)
}
