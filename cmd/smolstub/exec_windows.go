//go:build windows

package main

import (
	"fmt"
	"os"

	"github.com/socketdev/smolstub/internal/handoff"
	"github.com/socketdev/smolstub/internal/selfopen"
)

// execChild spawns the cached binary with CreateProcess, waits for it,
// and propagates its exit code — Windows has no execve equivalent that
// replaces the current image, so the stub itself returns this code.
func execChild(self *selfopen.Handle, binPath string, argv []string) int {
	code, err := handoff.Exec(self.File, binPath, argv, os.Environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "[STUB EXEC] failed to spawn %s: %v\n", binPath, err)
		return 1
	}
	return code
}
