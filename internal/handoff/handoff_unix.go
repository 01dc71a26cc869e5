//go:build linux || darwin

package handoff

import (
	"os"

	"golang.org/x/sys/unix"
)

// Exec closes self, then execve()s into binaryPath with the filtered
// argv and the parent's environment. argv[0] is replaced with
// binaryPath per spec §4.8. On success this call never returns; on
// failure it returns the error and the caller is expected to print a
// diagnostic and exit 1.
func Exec(self *os.File, binaryPath string, argv []string, envp []string) error {
	if self != nil {
		_ = self.Close()
	}
	fullArgv := append([]string{binaryPath}, argv...)
	return unix.Exec(binaryPath, fullArgv, envp)
}
