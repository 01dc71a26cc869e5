//go:build darwin

package selfopen

import "os"

// openPlatformSelf resolves the running image path the way the Darwin
// runtime does internally (_NSGetExecutablePath, surfaced to Go code
// through os.Executable on this platform) and opens it close-on-exec.
func openPlatformSelf() (*os.File, string, error) {
	path, err := os.Executable()
	if err != nil {
		return nil, "", err
	}
	f, err := openCloseOnExec(path)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}
