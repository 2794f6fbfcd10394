package envelope

import (
	"os"

	"github.com/juju/errors"
)

// LoadKey reads the process-wide symmetric key from path. The file must
// contain at least KeySize raw bytes; anything shorter is a fatal
// configuration error per spec.md §3/§7. Bytes beyond KeySize are
// ignored, matching the original implementation's fread(..., KEYBYTES,
// ...) semantics.
func LoadKey(path string) (key [KeySize]byte, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return key, errors.Annotatef(err, "reading key file %q", path)
	}
	if len(data) < KeySize {
		return key, errors.Errorf("key file %q is %d bytes, need at least %d", path, len(data), KeySize)
	}
	copy(key[:], data[:KeySize])
	return key, nil
}
