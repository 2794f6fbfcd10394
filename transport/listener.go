package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"syscall"

	"github.com/inmpx/inmpx/config"
	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// Listener is the controlled peer's single bound datagram endpoint.
type Listener struct {
	conn     net.PacketConn
	unixPath string // non-empty for Unix listeners, so Close can unlink it
}

// Listen binds the receive socket described by t. For network mode,
// SO_REUSEADDR is set on the listening socket before bind, matching
// controlled.c's setup_socket. For Unix mode, the socket file's mode
// and ownership are applied after bind and before Listen returns,
// matching controlled.c exactly; the path is remembered so Close can
// unlink it.
func Listen(t config.Transport) (*Listener, error) {
	switch t.Mode {
	case "network":
		if t.Network == nil {
			return nil, errors.New("transport: mode \"network\" requires a network block")
		}
		lc := net.ListenConfig{
			Control: func(_, _ string, c syscall.RawConn) error {
				var sockErr error
				err := c.Control(func(fd uintptr) {
					sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				})
				if err != nil {
					return err
				}
				return sockErr
			},
		}
		addr := fmt.Sprintf("%s:%d", t.Network.Address, t.Network.Port)
		conn, err := lc.ListenPacket(context.Background(), "udp4", addr)
		if err != nil {
			return nil, errors.Annotatef(err, "binding %s", addr)
		}
		return &Listener{conn: conn}, nil

	case "unix":
		if t.Unix == nil {
			return nil, errors.New("transport: mode \"unix\" requires a unix block")
		}
		conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: t.Unix.Path, Net: "unixgram"})
		if err != nil {
			return nil, errors.Annotatef(err, "binding %s", t.Unix.Path)
		}
		if t.Unix.Mode != 0 {
			if err := os.Chmod(t.Unix.Path, os.FileMode(t.Unix.Mode)); err != nil {
				conn.Close()
				os.Remove(t.Unix.Path)
				return nil, errors.Annotatef(err, "chmod %s", t.Unix.Path)
			}
		}
		if t.Unix.Owner != 0 || t.Unix.Group != 0 {
			if err := os.Chown(t.Unix.Path, t.Unix.Owner, t.Unix.Group); err != nil {
				conn.Close()
				os.Remove(t.Unix.Path)
				return nil, errors.Annotatef(err, "chown %s", t.Unix.Path)
			}
		}
		return &Listener{conn: conn, unixPath: t.Unix.Path}, nil

	default:
		return nil, errors.Errorf("transport: unknown mode %q", t.Mode)
	}
}

// ReadFrame reads one datagram into buf. It returns the number of bytes
// read; a length mismatch against the expected frame size is the
// caller's responsibility to detect and drop, per spec.md §4.5.
func (l *Listener) ReadFrame(buf []byte) (int, error) {
	n, _, err := l.conn.ReadFrom(buf)
	return n, err
}

// Close releases the listening socket. For Unix listeners, the socket
// path is unlinked, matching controlled.c's close_socket; no attempt is
// made to unlink device symlinks, which spec.md documents as a
// deliberate limitation.
func (l *Listener) Close() error {
	err := l.conn.Close()
	if l.unixPath != "" {
		if rmErr := os.Remove(l.unixPath); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}
