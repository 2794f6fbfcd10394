// Package controlled implements the controlled peer's receive path:
// frame decoding with the replay-window acceptance check (spec.md
// §4.5), and the replay loop that writes decoded frames to synthetic
// devices (spec.md §4.6).
package controlled

import (
	"time"

	"github.com/inmpx/inmpx/envelope"
	"github.com/inmpx/inmpx/frame"
	"github.com/inmpx/inmpx/logging"
)

// Decoder turns raw datagrams into frames, optionally decrypting them.
type Decoder struct {
	sealer       *envelope.Sealer
	timeDivision uint64
	log          logging.Logger
}

// NewDecoder builds a Decoder. sealer is nil when encryption is
// disabled, in which case datagrams are treated as plaintext frames.
func NewDecoder(sealer *envelope.Sealer, timeDivision uint64, log logging.Logger) *Decoder {
	return &Decoder{sealer: sealer, timeDivision: timeDivision, log: log}
}

// FrameSize is the exact datagram length this decoder expects: plain
// frame size, or frame size plus envelope overhead when encrypting.
func (d *Decoder) FrameSize() int {
	if d.sealer != nil {
		return frame.Size + envelope.Overhead
	}
	return frame.Size
}

// Decode validates and decodes one datagram per spec.md §4.5 steps
// 2-4. ok is false when the datagram was rejected (wrong length or
// failed authentication); the caller logs nothing further and simply
// continues its loop, per spec.md §7's "transient wire" error policy.
func (d *Decoder) Decode(datagram []byte) (f frame.Frame, ok bool) {
	if len(datagram) != d.FrameSize() {
		d.log.Errorf("dropping datagram: length %d, want %d", len(datagram), d.FrameSize())
		return frame.Frame{}, false
	}

	plain := datagram
	if d.sealer != nil {
		candidates := envelope.AcceptWindow(time.Now(), d.timeDivision)
		opened, err := d.sealer.Open(nil, datagram, candidates)
		if err != nil {
			d.log.Errorf("dropping datagram: %v", err)
			return frame.Frame{}, false
		}
		plain = opened
	}

	return frame.Decode(plain), true
}
