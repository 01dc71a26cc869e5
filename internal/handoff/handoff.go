// Package handoff implements the final step of the stub state machine:
// strip the update-config flag from argv, close the self handle, and
// exec (POSIX) or CreateProcess-and-wait (Windows) into the cached
// binary.
package handoff

import "strings"

// FilterUpdateConfigArgs removes any argument of the form
// "--update-config..." before the child sees argv, returning the
// remaining entries in order in a new slice (the caller's slice itself
// is not mutated). A bare "--update-config" (no attached "=value")
// also consumes the following argv entry as its value, per spec §8
// Scenario B ("--update-config enable" removed as a pair) — only the
// "--update-config=value" form carries its value inline.
func FilterUpdateConfigArgs(argv []string) []string {
	out := make([]string, 0, len(argv))
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		if !strings.HasPrefix(a, "--update-config") {
			out = append(out, a)
			continue
		}
		if !strings.Contains(a, "=") && i+1 < len(argv) {
			i++ // also consume the space-separated value token
		}
	}
	return out
}
