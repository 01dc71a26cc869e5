// Package selfopen produces a read handle and best-effort path to the
// stub's own running executable image, honoring SOCKET_SMOL_STUB_PATH
// before falling back to the platform-native self-lookup.
package selfopen

import (
	"fmt"
	"os"

	"github.com/socketdev/smolstub/internal/envcfg"
	"github.com/socketdev/smolstub/internal/stuberr"
)

// Handle is the opened self-image: a read-only, close-on-exec file
// handle plus the path it was opened from.
type Handle struct {
	File *os.File
	Path string
}

// Close closes the underlying file.
func (h *Handle) Close() error {
	if h == nil || h.File == nil {
		return nil
	}
	return h.File.Close()
}

// Open resolves and opens the running executable image per the
// resolution order in spec §4.1:
//  1. SOCKET_SMOL_STUB_PATH, if set and non-empty.
//  2. The platform-native self path (/proc/self/exe, _NSGetExecutablePath,
//     GetModuleFileNameW).
//
// If every attempt fails, it returns a *stuberr.Error naming every
// attempted method.
func Open() (*Handle, error) {
	var attempts []string

	if override := envcfg.StubPath(); override != "" {
		f, err := openCloseOnExec(override)
		if err == nil {
			return &Handle{File: f, Path: override}, nil
		}
		attempts = append(attempts, fmt.Sprintf("SOCKET_SMOL_STUB_PATH=%q: %v", override, err))
	}

	f, path, err := openPlatformSelf()
	if err == nil {
		return &Handle{File: f, Path: path}, nil
	}
	attempts = append(attempts, fmt.Sprintf("platform self-lookup: %v", err))

	return nil, stuberr.New(stuberr.SelfOpenFailed, stuberr.SubSelfOpen,
		"could not open the running executable image ("+joinAttempts(attempts)+")")
}

func joinAttempts(attempts []string) string {
	out := ""
	for i, a := range attempts {
		if i > 0 {
			out += "; "
		}
		out += a
	}
	return out
}
