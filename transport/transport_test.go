package transport

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/inmpx/inmpx/config"
)

func TestUnixRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "inmpx.sock")

	listener, err := Listen(config.Transport{Mode: "unix", Unix: &config.UnixPoint{Path: sockPath, Mode: 0o600}})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	peer, err := DialPeer(config.Transport{Mode: "unix", Unix: &config.UnixPoint{Path: sockPath}})
	if err != nil {
		t.Fatal(err)
	}
	defer peer.Close()

	payload := []byte("0123456789012345")
	if err := peer.Send(payload); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 64)
	done := make(chan struct{})
	var n int
	var readErr error
	go func() {
		n, readErr = listener.ReadFrame(buf)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(buf[:n]) != string(payload) {
		t.Errorf("got %q, want %q", buf[:n], payload)
	}
}

func TestNetworkRoundTrip(t *testing.T) {
	listener, err := Listen(config.Transport{Mode: "network", Network: &config.NetworkPoint{Address: "127.0.0.1", Port: 0}})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	addr := listener.conn.LocalAddr().(*net.UDPAddr)
	peer, err := DialPeer(config.Transport{Mode: "network", Network: &config.NetworkPoint{Address: "127.0.0.1", Port: uint16(addr.Port)}})
	if err != nil {
		t.Fatal(err)
	}
	defer peer.Close()

	payload := []byte("0123456789012345")
	if err := peer.Send(payload); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 64)
	n, err := listener.ReadFrame(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != string(payload) {
		t.Errorf("got %q, want %q", buf[:n], payload)
	}
}
