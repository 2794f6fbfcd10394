// Package frame defines the wire representation of a single input event
// exchanged between a controller and a controlled peer.
package frame

import "encoding/binary"

// Size is the length, in bytes, of a frame on the wire.
const Size = 16

// Frame is the 16-byte record carried inside every datagram. DeviceID
// correlates a controller device with a controlled synthetic device;
// Type and Code mirror the host input subsystem's event class and
// subcode; Value is the signed event payload (key state, axis delta,
// scan code, ...).
type Frame struct {
	DeviceID uint32
	Type     uint32
	Code     uint32
	Value    int32
}

// IsSync reports whether f is the sync marker that flushes a logical
// input group on the receiving peer.
func (f Frame) IsSync() bool {
	return f.Type == 0 && f.Code == 0 && f.Value == 0
}

// Sync builds the sync marker frame for the given device.
func Sync(deviceID uint32) Frame {
	return Frame{DeviceID: deviceID}
}

// Encode serializes f into network byte order.
func (f Frame) Encode() [Size]byte {
	var buf [Size]byte
	binary.BigEndian.PutUint32(buf[0:4], f.DeviceID)
	binary.BigEndian.PutUint32(buf[4:8], f.Type)
	binary.BigEndian.PutUint32(buf[8:12], f.Code)
	binary.BigEndian.PutUint32(buf[12:16], uint32(f.Value))
	return buf
}

// Decode parses a Size-byte network-byte-order buffer produced by Encode.
func Decode(buf []byte) Frame {
	return Frame{
		DeviceID: binary.BigEndian.Uint32(buf[0:4]),
		Type:     binary.BigEndian.Uint32(buf[4:8]),
		Code:     binary.BigEndian.Uint32(buf[8:12]),
		Value:    int32(binary.BigEndian.Uint32(buf[12:16])),
	}
}
