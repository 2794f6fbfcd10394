package controlled

import (
	"fmt"

	"github.com/inmpx/inmpx/internal/atomicbool"
	"github.com/inmpx/inmpx/logging"
	"github.com/inmpx/inmpx/transport"
	"github.com/inmpx/inmpx/uinput"
)

// Replayer runs the controlled peer's single-threaded receive loop:
// read a datagram, decode it, look up the target synthetic device by
// device_id, and write the event. Matches spec.md §5's "single-threaded
// cooperative loop" concurrency model for the controlled side.
type Replayer struct {
	listener *transport.Listener
	decoder  *Decoder
	devices  *uinput.Set
	log      logging.Logger

	terminate atomicbool.Bool
}

// NewReplayer builds a replay loop over an already-bound listener, a
// decoder, and the synthetic device set to dispatch into.
func NewReplayer(listener *transport.Listener, decoder *Decoder, devices *uinput.Set, log logging.Logger) *Replayer {
	return &Replayer{listener: listener, decoder: decoder, devices: devices, log: log}
}

// Stop requests the loop exit at its next iteration. The listener
// should also be closed by the caller to unblock a pending read.
func (r *Replayer) Stop() {
	r.terminate.Set(true)
}

// Run blocks, replaying datagrams until Stop is called or a read error
// occurs. A read error (as opposed to a rejected malformed datagram) is
// fatal per spec.md §4.5/§7 and is returned to the caller.
func (r *Replayer) Run() error {
	buf := make([]byte, r.decoder.FrameSize())

	for {
		if r.terminate.Get() {
			return nil
		}

		n, err := r.listener.ReadFrame(buf)
		if err != nil {
			if r.terminate.Get() {
				return nil
			}
			return fmt.Errorf("controlled: fatal read error: %w", err)
		}

		f, ok := r.decoder.Decode(buf[:n])
		if !ok {
			continue
		}

		dev := r.devices.Lookup(f.DeviceID)
		if dev == nil {
			r.log.Errorf("unknown device id %#x", f.DeviceID)
			continue
		}

		if !dev.Accepts(f.Type, f.Code) {
			return fmt.Errorf("controlled: device %#x rejected undeclared event type=%#x code=%#x", f.DeviceID, f.Type, f.Code)
		}

		if err := dev.WriteEvent(f.Type, f.Code, f.Value); err != nil {
			return err
		}
	}
}
