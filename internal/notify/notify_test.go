package notify_test

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/socketdev/smolstub/internal/notify"
	"github.com/socketdev/smolstub/internal/updatecheck"
)

func TestRenderIncludesVersionsAndCommand(t *testing.T) {
	var buf bytes.Buffer
	result := updatecheck.Result{
		UpdateAvailable: true,
		CurrentVersion:  "1.0.0",
		LatestVersion:   "1.1.0",
	}
	notify.Render(&buf, result, "node", "dlx self-update")

	out := buf.String()
	if !strings.Contains(out, "1.0.0") || !strings.Contains(out, "1.1.0") {
		t.Fatalf("expected both versions in output, got:\n%s", out)
	}
	if !strings.Contains(out, "node") || !strings.Contains(out, "dlx self-update") {
		t.Fatalf("expected binname and command in output, got:\n%s", out)
	}
}

func TestRenderOmitsRunLineWithoutCommand(t *testing.T) {
	var buf bytes.Buffer
	result := updatecheck.Result{CurrentVersion: "1.0.0", LatestVersion: "1.1.0"}
	notify.Render(&buf, result, "node", "")

	out := buf.String()
	if strings.Contains(out, "Run:") {
		t.Fatalf("expected no Run: line when command is empty, got:\n%s", out)
	}
}

// TestRenderAlignsBorderDespiteMultibyteGlyph guards against padLine
// measuring width in bytes: the "→" in the version line is three bytes
// but one display column, so every rendered line (border and content)
// must have the same rune count or the right border misaligns.
func TestRenderAlignsBorderDespiteMultibyteGlyph(t *testing.T) {
	var buf bytes.Buffer
	result := updatecheck.Result{CurrentVersion: "1.0.0", LatestVersion: "1.1.0"}
	notify.Render(&buf, result, "", "")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) == 0 {
		t.Fatalf("expected at least one rendered line")
	}
	width := utf8.RuneCountInString(lines[0])
	for i, line := range lines {
		if n := utf8.RuneCountInString(line); n != width {
			t.Fatalf("line %d has %d display columns, want %d (border misaligned):\n%s", i, n, width, buf.String())
		}
	}
}
