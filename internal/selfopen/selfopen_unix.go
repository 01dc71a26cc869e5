//go:build linux || darwin

package selfopen

import (
	"os"

	"golang.org/x/sys/unix"
)

// openCloseOnExec opens path read-only with O_CLOEXEC so a forked child
// (there shouldn't be one, but defense in depth) never inherits it.
func openCloseOnExec(path string) (*os.File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
