package controller

import (
	"time"

	"github.com/inmpx/inmpx/envelope"
	"github.com/inmpx/inmpx/frame"
	"github.com/inmpx/inmpx/logging"
	"github.com/inmpx/inmpx/transport"
)

// Peer is one controller-side send endpoint: the datagram socket to a
// configured controlled peer, plus its optional post-switch hook.
type Peer struct {
	conn              *transport.Peer
	postSwitchCommand string
}

// NewPeer wraps an already-dialed transport endpoint as a controller
// Peer with the given post-switch hook (empty if none configured).
func NewPeer(conn *transport.Peer, postSwitchCommand string) *Peer {
	return &Peer{conn: conn, postSwitchCommand: postSwitchCommand}
}

// send serializes f, optionally seals it under sealer (using the bucket
// for the current wall-clock second divided by timeDivision), and emits
// it to the peer. A transport error is logged and swallowed: spec.md
// §4.4/§7 mandate best-effort delivery with no retry.
func (p *Peer) send(f frame.Frame, sealer *envelope.Sealer, timeDivision uint64, log logging.Logger) {
	plain := f.Encode()

	var payload []byte
	if sealer != nil {
		bucket := envelope.Bucket(time.Now(), timeDivision)
		payload = sealer.Seal(nil, plain[:], bucket)
	} else {
		payload = plain[:]
	}

	if err := p.conn.Send(payload); err != nil {
		log.Errorf("send to peer failed: %v", err)
	}
}
