package evdevreader

import (
	"os"
	"testing"
)

func pipeForTest(t *testing.T) (*os.File, *os.File, error) {
	t.Helper()
	return os.Pipe()
}
