//go:build linux || darwin

package main

import (
	"fmt"
	"os"

	"github.com/socketdev/smolstub/internal/handoff"
	"github.com/socketdev/smolstub/internal/selfopen"
)

// execChild hands off to the cached binary. On success execve never
// returns; reaching the line after it means the exec itself failed, so
// we report that and return 1, which main passes to os.Exit. run's
// deferred self.Close still runs first, on a handle Exec has already
// closed.
func execChild(self *selfopen.Handle, binPath string, argv []string) int {
	err := handoff.Exec(self.File, binPath, argv, os.Environ())
	fmt.Fprintf(os.Stderr, "[STUB EXEC] failed to exec %s: %v\n", binPath, err)
	return 1
}
