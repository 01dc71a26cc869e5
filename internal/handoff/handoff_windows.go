//go:build windows

package handoff

import (
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Exec closes self, builds a single CRT-quoted command line, and calls
// CreateProcess with the parent's stdio handles wired into the
// child's STARTUPINFO and bInheritHandles = TRUE. It waits for the
// child and returns its exit code; unlike the POSIX path this call
// does return on success, because Windows has no direct equivalent of
// execve replacing the current image.
func Exec(self *os.File, binaryPath string, argv []string, envp []string) (int, error) {
	if self != nil {
		_ = self.Close()
	}

	cmdLine := quoteCommandLine(append([]string{binaryPath}, argv...))
	cmdLine16, err := windows.UTF16PtrFromString(cmdLine)
	if err != nil {
		return -1, err
	}
	app16, err := windows.UTF16PtrFromString(binaryPath)
	if err != nil {
		return -1, err
	}

	si := &windows.StartupInfo{
		StdInput:  windows.Handle(os.Stdin.Fd()),
		StdOutput: windows.Handle(os.Stdout.Fd()),
		StdErr:    windows.Handle(os.Stderr.Fd()),
		Flags:     windows.STARTF_USESTDHANDLES,
	}
	si.Cb = uint32(unsafe.Sizeof(*si))
	pi := &windows.ProcessInformation{}

	err = windows.CreateProcess(
		app16, cmdLine16,
		nil, nil,
		true,
		0,
		nil, nil,
		si, pi,
	)
	if err != nil {
		return -1, err
	}
	defer windows.CloseHandle(pi.Thread)
	defer windows.CloseHandle(pi.Process)

	if _, err := windows.WaitForSingleObject(pi.Process, windows.INFINITE); err != nil {
		return -1, err
	}

	var exitCode uint32
	if err := windows.GetExitCodeProcess(pi.Process, &exitCode); err != nil {
		return -1, err
	}
	return int(exitCode), nil
}

// quoteCommandLine joins args into a single command-line string using
// the CRT quoting rules Windows argument parsers expect: a trailing run
// of backslashes before a closing quote is doubled, and internal quotes
// are escaped with a backslash.
func quoteCommandLine(args []string) string {
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(quoteArg(a))
	}
	return b.String()
}

func quoteArg(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\v\"") {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	backslashes := 0
	for _, r := range s {
		switch r {
		case '\\':
			backslashes++
		case '"':
			b.WriteString(strings.Repeat(`\`, backslashes*2+1))
			b.WriteByte('"')
			backslashes = 0
		default:
			if backslashes > 0 {
				b.WriteString(strings.Repeat(`\`, backslashes))
				backslashes = 0
			}
			b.WriteRune(r)
		}
	}
	if backslashes > 0 {
		b.WriteString(strings.Repeat(`\`, backslashes*2))
	}
	b.WriteByte('"')
	return b.String()
}
