package controller

import (
	"path/filepath"
	"testing"

	"github.com/inmpx/inmpx/config"
	"github.com/inmpx/inmpx/frame"
	"github.com/inmpx/inmpx/logging"
	"github.com/inmpx/inmpx/transport"
)

// testPeer pairs a controller-side send Peer with the controlled-side
// Listener it talks to, both over a throwaway Unix datagram socket, so
// tests can assert on exactly what datagrams were emitted.
type testPeer struct {
	peer     *Peer
	listener *transport.Listener
}

func newTestPeers(t *testing.T, n int, postSwitch []string) []*testPeer {
	t.Helper()
	dir := t.TempDir()
	peers := make([]*testPeer, n)
	for i := 0; i < n; i++ {
		sockPath := filepath.Join(dir, "peer")
		sockPath = filepath.Join(dir, "peer"+string(rune('0'+i))+".sock")

		listener, err := transport.Listen(config.Transport{Mode: "unix", Unix: &config.UnixPoint{Path: sockPath, Mode: 0o600}})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { listener.Close() })

		conn, err := transport.DialPeer(config.Transport{Mode: "unix", Unix: &config.UnixPoint{Path: sockPath}})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { conn.Close() })

		var hook string
		if postSwitch != nil {
			hook = postSwitch[i]
		}
		peers[i] = &testPeer{peer: &Peer{conn: conn, postSwitchCommand: hook}, listener: listener}
	}
	return peers
}

func peerSlice(tps []*testPeer) []*Peer {
	out := make([]*Peer, len(tps))
	for i, tp := range tps {
		out[i] = tp.peer
	}
	return out
}

func recvFrame(t *testing.T, tp *testPeer) frame.Frame {
	t.Helper()
	buf := make([]byte, frame.Size)
	n, err := tp.listener.ReadFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != frame.Size {
		t.Fatalf("got %d bytes, want %d", n, frame.Size)
	}
	return frame.Decode(buf)
}

func testLogger() logging.Logger {
	return logging.New(logging.LevelSilent, "test: ")
}
