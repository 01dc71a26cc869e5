package handoff_test

import (
	"reflect"
	"testing"

	"github.com/socketdev/smolstub/internal/handoff"
)

func TestFilterUpdateConfigArgsStripsInlineValueForm(t *testing.T) {
	in := []string{"run", "--update-config=/tmp/foo.json", "build"}
	want := []string{"run", "build"}

	got := handoff.FilterUpdateConfigArgs(in)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FilterUpdateConfigArgs = %v, want %v", got, want)
	}
}

// TestFilterUpdateConfigArgsStripsSpaceSeparatedValue is spec §8
// Scenario B: "stub --update-config enable --foo bar" must hand off
// argv = ["<cached>", "--foo", "bar"] — the bare "--update-config"
// flag and its space-separated value token "enable" are both removed.
func TestFilterUpdateConfigArgsStripsSpaceSeparatedValue(t *testing.T) {
	in := []string{"--update-config", "enable", "--foo", "bar"}
	want := []string{"--foo", "bar"}

	got := handoff.FilterUpdateConfigArgs(in)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FilterUpdateConfigArgs = %v, want %v", got, want)
	}
}

func TestFilterUpdateConfigArgsBareFlagAtEndOfArgv(t *testing.T) {
	in := []string{"run", "--update-config"}
	want := []string{"run"}

	got := handoff.FilterUpdateConfigArgs(in)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FilterUpdateConfigArgs = %v, want %v", got, want)
	}
}

func TestFilterUpdateConfigArgsLeavesOthersUntouched(t *testing.T) {
	in := []string{"--version", "positional"}
	got := handoff.FilterUpdateConfigArgs(in)
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("FilterUpdateConfigArgs = %v, want %v", got, in)
	}
}

func TestFilterUpdateConfigArgsDoesNotMutateInput(t *testing.T) {
	in := []string{"--update-config=x", "keep"}
	inCopy := append([]string(nil), in...)
	_ = handoff.FilterUpdateConfigArgs(in)
	if !reflect.DeepEqual(in, inCopy) {
		t.Fatalf("input slice was mutated: %v", in)
	}
}
