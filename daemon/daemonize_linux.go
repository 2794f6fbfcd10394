// Package daemon backgrounds a process by re-executing itself with
// --foreground, the same trick wireguard-go's daemon_linux.go uses to
// background its own interface setup.
package daemon

import (
	"os"
	"os/exec"
	"syscall"
)

// Daemonize re-execs the current binary with argv plus "--foreground",
// detaches it from the controlling terminal, and releases it. The
// caller's process should exit immediately afterward.
func Daemonize(argv []string) error {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return err
	}

	args := append([]string{argv[0], "--foreground"}, argv[1:]...)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer devNull.Close()

	attr := &os.ProcAttr{
		Files: []*os.File{devNull, devNull, devNull},
		Dir:   ".",
		Env:   os.Environ(),
		Sys:   &syscall.SysProcAttr{Setsid: true},
	}

	process, err := os.StartProcess(path, args, attr)
	if err != nil {
		return err
	}
	return process.Release()
}
