// Command keygen writes a fresh symmetric key to standard output: 32
// random bytes, no header, no trailing newline, produced with the
// runtime's CSPRNG, as spec.md §6 requires.
package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/inmpx/inmpx/envelope"
)

func main() {
	var key [envelope.KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}
	if _, err := os.Stdout.Write(key[:]); err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}
}
