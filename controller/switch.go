package controller

import (
	"os/exec"
	"sync"

	"github.com/inmpx/inmpx/envelope"
	"github.com/inmpx/inmpx/evcodes"
	"github.com/inmpx/inmpx/frame"
	"github.com/inmpx/inmpx/logging"
)

// Switcher owns active_peer and the hotkey latch (modifier_down,
// key_down), and serializes every switch on a single mutex — the
// "switch mutex" spec.md §4.3/§5 describes. The post-switch hook runs
// while the mutex is still held, so a slow hook delays rather than
// races the next switch.
type Switcher struct {
	mu sync.Mutex

	activePeer int
	modifier   bool
	key        bool

	peers        []*Peer
	sealer       *envelope.Sealer
	timeDivision uint64

	switchableDevice uint32
	switchModifier   uint32
	switchKey        uint32

	log logging.Logger
}

// NewSwitcher builds a switch controller for the given peer set,
// starting at active peer 0.
func NewSwitcher(peers []*Peer, sealer *envelope.Sealer, timeDivision uint64, switchableDevice, switchModifier, switchKey uint32, log logging.Logger) *Switcher {
	return &Switcher{
		peers:            peers,
		sealer:           sealer,
		timeDivision:     timeDivision,
		switchableDevice: switchableDevice,
		switchModifier:   switchModifier,
		switchKey:        switchKey,
		log:              log,
	}
}

// ActivePeer returns the current active peer index. This is an
// unsynchronized read by design: spec.md §5 allows the fast dispatch
// path to race a concurrent switch, at worst delivering a single event
// to the pre- or post-switch peer.
func (s *Switcher) ActivePeer() int {
	return s.activePeer
}

// observeHotkey updates the modifier/key latch for one switchable-device
// key event and triggers a switch exactly when both become held, per
// spec.md §4.2 step 4. It is always called under s.mu by Dispatcher.
func (s *Switcher) observeHotkey(code uint32, pressed bool) {
	switch code {
	case s.switchModifier:
		s.modifier = pressed
	case s.switchKey:
		s.key = pressed
	default:
		return
	}
	if s.modifier && s.key {
		s.doSwitch()
	}
}

// doSwitch performs the switch described in spec.md §4.3. The caller
// must hold s.mu.
func (s *Switcher) doSwitch() {
	n := len(s.peers)
	s.activePeer = (s.activePeer + 1) % n
	s.modifier = false
	s.key = false

	cleanup := []frame.Frame{
		{DeviceID: s.switchableDevice, Type: evcodes.EV_KEY, Code: s.switchKey, Value: 0},
		frame.Sync(s.switchableDevice),
		{DeviceID: s.switchableDevice, Type: evcodes.EV_KEY, Code: s.switchModifier, Value: 0},
		frame.Sync(s.switchableDevice),
	}

	for _, p := range s.peers {
		for _, f := range cleanup {
			p.send(f, s.sealer, s.timeDivision, s.log)
		}
	}

	newPeer := s.peers[s.activePeer]
	if newPeer.postSwitchCommand != "" {
		runPostSwitchHook(newPeer.postSwitchCommand, s.log)
	}
}

// Lock/Unlock expose the switch mutex to Dispatcher so that forwarding
// the triggering event to the pre-switch active peer and then invoking
// the switch happen as one atomic step, matching the ordering spec.md
// §4.2's "Observation" paragraph requires.
func (s *Switcher) Lock()   { s.mu.Lock() }
func (s *Switcher) Unlock() { s.mu.Unlock() }

// runPostSwitchHook executes command through a shell, in the style of
// wireguard-go's own os/exec use for spawning a foreground copy of
// itself (daemon_linux.go). A non-zero exit is logged, never fatal, per
// spec.md §4.3/§7/§9's trust-boundary note on the hook.
func runPostSwitchHook(command string, log logging.Logger) {
	cmd := exec.Command("/bin/sh", "-c", command)
	if err := cmd.Run(); err != nil {
		log.Errorf("postswitch hook %q failed: %v", command, err)
	}
}
