package controlled

import (
	"testing"
	"time"

	"github.com/inmpx/inmpx/envelope"
	"github.com/inmpx/inmpx/frame"
	"github.com/inmpx/inmpx/logging"
)

func testSealer(t *testing.T) *envelope.Sealer {
	t.Helper()
	var key [envelope.KeySize]byte
	for i := range key {
		key[i] = byte(i)
	}
	sealer, err := envelope.NewSealer(key, envelope.Context{'t', 'e', 's', 't'})
	if err != nil {
		t.Fatal(err)
	}
	return sealer
}

func TestDecodePlaintext(t *testing.T) {
	d := NewDecoder(nil, 1, logging.New(logging.LevelSilent, ""))
	want := frame.Frame{DeviceID: 1, Type: 1, Code: 30, Value: 1}
	buf := want.Encode()

	got, ok := d.Decode(buf[:])
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDecodeWrongLength(t *testing.T) {
	d := NewDecoder(nil, 1, logging.New(logging.LevelSilent, ""))
	_, ok := d.Decode(make([]byte, frame.Size-1))
	if ok {
		t.Error("expected decode to reject a short datagram")
	}
}

func TestDecodeEncryptedWithinWindow(t *testing.T) {
	sealer := testSealer(t)
	d := NewDecoder(sealer, 30, logging.New(logging.LevelSilent, ""))

	want := frame.Frame{DeviceID: 2, Type: 2, Code: 0, Value: -5}
	plain := want.Encode()
	bucket := envelope.Bucket(time.Now(), 30)
	ciphertext := sealer.Seal(nil, plain[:], bucket)

	got, ok := d.Decode(ciphertext)
	if !ok {
		t.Fatal("expected decode within the acceptance window to succeed")
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDecodeEncryptedOutsideWindow(t *testing.T) {
	sealer := testSealer(t)
	d := NewDecoder(sealer, 30, logging.New(logging.LevelSilent, ""))

	want := frame.Frame{DeviceID: 2, Type: 2, Code: 0, Value: 5}
	plain := want.Encode()
	farBucket := envelope.Bucket(time.Now(), 30) + 5
	ciphertext := sealer.Seal(nil, plain[:], farBucket)

	if _, ok := d.Decode(ciphertext); ok {
		t.Error("expected decode outside the acceptance window to fail")
	}
}
