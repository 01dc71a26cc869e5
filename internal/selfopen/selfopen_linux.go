//go:build linux

package selfopen

import "os"

// selfPath is the magic symlink Linux exposes for the running process's
// executable image.
const selfPath = "/proc/self/exe"

// openPlatformSelf opens /proc/self/exe directly rather than resolving
// the symlink target first: the readlink target may not exist in the
// current mount namespace (containers, chroots), but the symlink itself
// always opens correctly.
func openPlatformSelf() (*os.File, string, error) {
	f, err := openCloseOnExec(selfPath)
	if err != nil {
		return nil, "", err
	}
	return f, selfPath, nil
}
