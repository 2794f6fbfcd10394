// Package controller implements the controller daemon's event pipeline:
// the dispatcher and hotkey state machine (spec.md §4.2) and the switch
// controller (spec.md §4.3).
package controller

import (
	"github.com/inmpx/inmpx/envelope"
	"github.com/inmpx/inmpx/evcodes"
	"github.com/inmpx/inmpx/frame"
	"github.com/inmpx/inmpx/logging"
)

// Dispatcher routes one physical event at a time to a peer, applying
// the passthrough rule ahead of the hotkey state machine. One
// Dispatcher is shared by every device reader goroutine; its only
// mutable shared state lives in Switcher.
type Dispatcher struct {
	peers        []*Peer
	switcher     *Switcher
	sealer       *envelope.Sealer
	timeDivision uint64

	switchableDevice  uint32
	passthroughKeys   map[uint32]bool
	passthroughClient int

	log logging.Logger
}

// NewDispatcher builds a dispatcher over an already-constructed peer
// set and switcher. sealer is nil when encryption is disabled.
func NewDispatcher(peers []*Peer, switcher *Switcher, sealer *envelope.Sealer, timeDivision uint64, switchableDevice uint32, passthroughKeys []uint32, passthroughClient int, log logging.Logger) *Dispatcher {
	keys := make(map[uint32]bool, len(passthroughKeys))
	for _, k := range passthroughKeys {
		keys[k] = true
	}
	return &Dispatcher{
		peers:             peers,
		switcher:          switcher,
		sealer:            sealer,
		timeDivision:      timeDivision,
		switchableDevice:  switchableDevice,
		passthroughKeys:   keys,
		passthroughClient: passthroughClient,
		log:               log,
	}
}

// HandleEvent implements spec.md §4.2 for one event e = {evType, code,
// value} arriving from physical device deviceID.
func (d *Dispatcher) HandleEvent(deviceID, evType, code uint32, value int32) {
	f := frame.Frame{DeviceID: deviceID, Type: evType, Code: code, Value: value}

	// Passthrough rule: a matching key event bypasses every other rule,
	// including the hotkey state machine (spec.md §4.2 tie-break).
	if evType == evcodes.EV_KEY && d.passthroughKeys[code] {
		target := d.peers[d.passthroughClient]
		target.send(f, d.sealer, d.timeDivision, d.log)
		target.send(frame.Sync(deviceID), d.sealer, d.timeDivision, d.log)
		return
	}

	isHotkeyCandidate := deviceID == d.switchableDevice && evType == evcodes.EV_KEY

	if !isHotkeyCandidate {
		// Unsynchronized read of the active peer: spec.md §5 permits this
		// fast path to race a concurrent switch.
		target := d.peers[d.switcher.ActivePeer()]
		target.send(f, d.sealer, d.timeDivision, d.log)
		return
	}

	// The triggering event must reach the pre-switch peer before the
	// switch takes effect (spec.md §4.2 "Observation"), so the send and
	// the hotkey-latch update happen under the same lock.
	d.switcher.Lock()
	target := d.peers[d.switcher.ActivePeer()]
	target.send(f, d.sealer, d.timeDivision, d.log)
	d.switcher.observeHotkey(code, value != 0)
	d.switcher.Unlock()
}
