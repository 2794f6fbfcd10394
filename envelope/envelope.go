// Package envelope implements the authenticated-encryption layer that
// wraps a wire frame before it is sent as a datagram. It plays the role
// libhydrogen's hydro_secretbox plays in the original implementation:
// a symmetric key, a short domain-separation context, and a nonce
// derived from a coarse wall-clock bucket rather than a counter, since
// the transport is unacknowledged datagrams with no shared sequence
// state between controller and peer.
package envelope

import (
	"encoding/binary"
	"errors"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of the process-wide symmetric key.
const KeySize = chacha20poly1305.KeySize // 32

// Overhead is the number of bytes the envelope adds to the plaintext.
const Overhead = chacha20poly1305.Overhead // 16

// ErrInvalidTag is returned when no candidate nonce in the acceptance
// window authenticates the ciphertext.
var ErrInvalidTag = errors.New("envelope: invalid authentication tag")

// Context is a short, fixed, application-specific string mixed into
// every seal/open as associated data. It provides the domain separation
// hydro_secretbox's context parameter gives the original implementation;
// AEAD associated data is the idiomatic Go equivalent since
// chacha20poly1305 has no dedicated context argument.
type Context [8]byte

// ContextFromString truncates or zero-pads s into a Context, the same
// fixed-width truncation libhydrogen applies to its context strings.
func ContextFromString(s string) Context {
	var c Context
	copy(c[:], s)
	return c
}

// Bucket returns the nonce bucket for t, i.e. floor(unix_seconds / timeDivision).
func Bucket(t time.Time, timeDivision uint64) uint64 {
	if timeDivision == 0 {
		timeDivision = 1
	}
	return uint64(t.Unix()) / timeDivision
}

// Sealer encrypts and authenticates plaintext frames for one peer.
type Sealer struct {
	aead    aeadCipher
	context Context
}

type aeadCipher interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
	Overhead() int
}

// NewSealer constructs a Sealer from a 32-byte key and an 8-byte context.
func NewSealer(key [KeySize]byte, context Context) (*Sealer, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead, context: context}, nil
}

func nonceFor(bucket uint64) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[chacha20poly1305.NonceSize-8:], bucket)
	return nonce
}

// Seal encrypts plaintext under the nonce derived from bucket, appending
// the result to dst and returning the extended slice. The associated
// data is the sealer's fixed context, giving ciphertexts sealed under a
// different context no chance of cross-validating.
func (s *Sealer) Seal(dst, plaintext []byte, bucket uint64) []byte {
	return s.aead.Seal(dst, nonceFor(bucket), plaintext, s.context[:])
}

// Open decrypts ciphertext, trying every bucket in candidates in order
// and returning on the first one whose authentication tag matches. This
// implements the replay window described in spec.md §4.5/§6/§8: a
// receiver whose clock differs from the sender's by at most one
// time-division bucket still accepts the datagram.
func (s *Sealer) Open(dst, ciphertext []byte, candidates []uint64) ([]byte, error) {
	for _, bucket := range candidates {
		out, err := s.aead.Open(dst, nonceFor(bucket), ciphertext, s.context[:])
		if err == nil {
			return out, nil
		}
	}
	return nil, ErrInvalidTag
}

// AcceptWindow returns the nonce buckets a receiver at time t should try,
// in order: the current bucket, then the previous one, then the next
// one, matching controlled.c's {N, N-1, N+1} order.
func AcceptWindow(t time.Time, timeDivision uint64) []uint64 {
	n := Bucket(t, timeDivision)
	candidates := []uint64{n}
	if n > 0 {
		candidates = append(candidates, n-1)
	}
	candidates = append(candidates, n+1)
	return candidates
}
