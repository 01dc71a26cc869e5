// Package notify renders the update-available box to stderr and, when
// the operator is at an interactive terminal, prompts them to run the
// configured self-update command.
package notify

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/socketdev/smolstub/internal/envcfg"
	"github.com/socketdev/smolstub/internal/updatecheck"
)

const boxWidth = 45

type glyphs struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical                       string
}

var utf8Glyphs = glyphs{"╭", "╮", "╰", "╯", "─", "│"}
var asciiGlyphs = glyphs{"+", "+", "+", "+", "-", "|"}

// Render draws the bordered "update available" box to w, choosing
// UTF-8 box-drawing characters when LANG/LC_ALL advertise UTF-8 and
// falling back to ASCII otherwise.
func Render(w io.Writer, result updatecheck.Result, binname, command string) {
	g := asciiGlyphs
	if envcfg.UTF8Capable() {
		g = utf8Glyphs
	}

	lines := []string{
		fmt.Sprintf("Update available: %s → %s", result.CurrentVersion, result.LatestVersion),
	}
	if command != "" {
		runLine := "Run: "
		if binname != "" {
			runLine += "[" + binname + "] "
		}
		runLine += command
		lines = append(lines, runLine)
	}

	fmt.Fprintln(w, g.topLeft+strings.Repeat(g.horizontal, boxWidth-2)+g.topRight)
	for _, line := range lines {
		fmt.Fprintln(w, g.vertical+padLine(line, boxWidth-2)+g.vertical)
	}
	fmt.Fprintln(w, g.bottomLeft+strings.Repeat(g.horizontal, boxWidth-2)+g.bottomRight)
}

// padLine pads s to width display columns, counting runes rather than
// bytes so a multibyte glyph like "→" still lines up the right border.
func padLine(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		out := []rune(s)
		return string(out[:width])
	}
	return s + strings.Repeat(" ", width-n)
}

// Prompt asks the operator whether to run the self-update command. On
// a non-TTY stderr it returns promptDefault=='y' without reading
// anything. On a TTY it reads a single raw-mode character and accepts
// y/Y, n/N, or Enter (-> default).
func Prompt(promptDefault byte) bool {
	fd := int(os.Stderr.Fd())
	if !term.IsTerminal(fd) {
		return promptDefault == 'y'
	}

	stdinFd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(stdinFd)
	if err != nil {
		return promptDefault == 'y'
	}
	defer term.Restore(stdinFd, state)

	r := bufio.NewReader(os.Stdin)
	b, err := r.ReadByte()
	if err != nil {
		return promptDefault == 'y'
	}
	switch b {
	case 'y', 'Y':
		return true
	case 'n', 'N':
		return false
	case '\r', '\n':
		return promptDefault == 'y'
	default:
		return promptDefault == 'y'
	}
}

// RunSelfUpdate invokes the cached binary with the configured update
// command's arguments — equivalent to the reference stub's
// system("\"<binary_path>\" <command_args>") call, but through a typed
// process-spawn API rather than a shell string concatenation — and
// returns its exit code.
func RunSelfUpdate(binaryPath, commandArgs string) (int, error) {
	cmd := exec.Command(binaryPath, strings.Fields(commandArgs)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
