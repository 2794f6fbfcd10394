package controller

import (
	"testing"

	"github.com/inmpx/inmpx/evcodes"
)

const (
	testSwitchableDevice = 0x4B425244
	testSwitchModifier   = evcodes.KEY_RIGHTCTRL
	testSwitchKey        = evcodes.KEY_SCROLLLOCK
)

// TestSwitchCyclicity covers spec.md §8 property 4: after K consecutive
// triggers, active_peer == (initial + K) mod N.
func TestSwitchCyclicity(t *testing.T) {
	const n = 3
	tps := newTestPeers(t, n, nil)
	sw := NewSwitcher(peerSlice(tps), nil, 1, testSwitchableDevice, testSwitchModifier, testSwitchKey, testLogger())

	for k := 1; k <= 7; k++ {
		sw.Lock()
		sw.observeHotkey(testSwitchModifier, true)
		sw.observeHotkey(testSwitchKey, true)
		sw.Unlock()

		// Drain the cleanup broadcast so the next round starts clean.
		for _, tp := range tps {
			recvFrame(t, tp)
			recvFrame(t, tp)
			recvFrame(t, tp)
			recvFrame(t, tp)
		}

		if got, want := sw.ActivePeer(), k%n; got != want {
			t.Fatalf("after %d triggers: active peer = %d, want %d", k, got, want)
		}
	}
}

// TestCleanupBroadcast covers spec.md §8 property 5: each trigger emits
// exactly 4*N datagrams, in the specified order, to every peer.
func TestCleanupBroadcast(t *testing.T) {
	const n = 2
	tps := newTestPeers(t, n, nil)
	sw := NewSwitcher(peerSlice(tps), nil, 1, testSwitchableDevice, testSwitchModifier, testSwitchKey, testLogger())

	sw.Lock()
	sw.observeHotkey(testSwitchModifier, true)
	sw.observeHotkey(testSwitchKey, true)
	sw.Unlock()

	for _, tp := range tps {
		f1 := recvFrame(t, tp)
		if f1.Code != testSwitchKey || f1.Value != 0 || f1.Type != evcodes.EV_KEY {
			t.Fatalf("frame 1: got %+v, want key-up switch_key", f1)
		}
		f2 := recvFrame(t, tp)
		if !f2.IsSync() {
			t.Fatalf("frame 2: got %+v, want sync", f2)
		}
		f3 := recvFrame(t, tp)
		if f3.Code != testSwitchModifier || f3.Value != 0 || f3.Type != evcodes.EV_KEY {
			t.Fatalf("frame 3: got %+v, want key-up switch_modifier", f3)
		}
		f4 := recvFrame(t, tp)
		if !f4.IsSync() {
			t.Fatalf("frame 4: got %+v, want sync", f4)
		}
	}
}

// TestModifierAloneDoesNotSwitch ensures only the modifier+key
// conjunction triggers a switch, and that a released key resets it.
func TestModifierAloneDoesNotSwitch(t *testing.T) {
	tps := newTestPeers(t, 2, nil)
	sw := NewSwitcher(peerSlice(tps), nil, 1, testSwitchableDevice, testSwitchModifier, testSwitchKey, testLogger())

	sw.Lock()
	sw.observeHotkey(testSwitchModifier, true)
	sw.Unlock()

	if sw.ActivePeer() != 0 {
		t.Fatalf("active peer changed on modifier alone: %d", sw.ActivePeer())
	}

	sw.Lock()
	sw.observeHotkey(testSwitchModifier, false)
	sw.observeHotkey(testSwitchKey, true)
	sw.Unlock()

	if sw.ActivePeer() != 0 {
		t.Fatalf("active peer changed without modifier held: %d", sw.ActivePeer())
	}
}
