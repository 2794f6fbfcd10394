// Package transport implements the datagram endpoints described in
// spec.md §4.4/§4.5/§6: one send-only endpoint per controller peer, and
// one bound receive endpoint on the controlled side. Both support the
// same two address families — UDP/IPv4, and a filesystem datagram
// (Unix) socket.
package transport

import (
	"fmt"
	"net"

	"github.com/inmpx/inmpx/config"
	"github.com/juju/errors"
)

// Peer is a send-capable datagram endpoint owning one peer's
// destination address, mirroring conn.Bind's per-destination send path
// in wireguard-go's conn/bind_std.go but specialized to a single,
// pre-resolved remote address rather than a roaming endpoint.
type Peer struct {
	conn net.Conn
}

// DialPeer opens the socket used to send datagrams to one configured
// peer. For network peers this is a connected UDP socket; for Unix
// peers, a connected datagram Unix socket.
func DialPeer(t config.Transport) (*Peer, error) {
	switch t.Mode {
	case "network":
		if t.Network == nil {
			return nil, errors.New("transport: mode \"network\" requires a network block")
		}
		addr := fmt.Sprintf("%s:%d", t.Network.Address, t.Network.Port)
		conn, err := net.Dial("udp4", addr)
		if err != nil {
			return nil, errors.Annotatef(err, "dialing peer %s", addr)
		}
		return &Peer{conn: conn}, nil
	case "unix":
		if t.Unix == nil {
			return nil, errors.New("transport: mode \"unix\" requires a unix block")
		}
		conn, err := net.Dial("unixgram", t.Unix.Path)
		if err != nil {
			return nil, errors.Annotatef(err, "dialing peer %s", t.Unix.Path)
		}
		return &Peer{conn: conn}, nil
	default:
		return nil, errors.Errorf("transport: unknown mode %q", t.Mode)
	}
}

// Send emits buf as a single datagram. A short write or transport error
// is the caller's to log and drop — per spec.md §4.4/§7 there is no
// retry and no reordering.
func (p *Peer) Send(buf []byte) error {
	n, err := p.conn.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("transport: short write: %d/%d bytes", n, len(buf))
	}
	return nil
}

// Close releases the peer's socket.
func (p *Peer) Close() error {
	return p.conn.Close()
}
