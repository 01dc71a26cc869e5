//go:build windows

package selfopen

import (
	"os"

	"golang.org/x/sys/windows"
)

// openPlatformSelf resolves the running image path via
// GetModuleFileNameW (through x/sys/windows) and opens it read-only.
// Windows has no close-on-exec flag; instead handoff closes this handle
// explicitly before CreateProcess, per spec §4.8.
func openPlatformSelf() (*os.File, string, error) {
	buf := make([]uint16, windows.MAX_PATH)
	n, err := windows.GetModuleFileName(0, &buf[0], uint32(len(buf)))
	if err != nil {
		return nil, "", err
	}
	path := windows.UTF16ToString(buf[:n])

	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}

func openCloseOnExec(path string) (*os.File, error) {
	return os.Open(path)
}
