package semver_test

import (
	"testing"

	"github.com/socketdev/smolstub/internal/semver"
)

func TestCompareDotted(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"v1.2.3", "1.2.3", 0},
		{"1.2.4", "1.2.3", 1},
		{"1.2.3", "1.2.4", -1},
		{"2.0.0", "1.99.99", 1},
		{"1.10.0", "1.9.0", 1},
		{"1.2.3.4", "1.2.3.3", 1},
		{"1.2", "1.2.0", 0},
	}
	for _, c := range cases {
		got := semver.Compare(c.a, c.b)
		if sign(got) != sign(c.want) {
			t.Errorf("Compare(%q, %q) = %d, want sign %d", c.a, c.b, got, c.want)
		}
	}
}

func TestCompareDateForm(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"2024-01-15", "2024-01-14", 1},
		{"2024-01-15", "2024-01-15", 0},
		{"2023-12-31", "2024-01-01", -1},
	}
	for _, c := range cases {
		got := semver.Compare(c.a, c.b)
		if sign(got) != sign(c.want) {
			t.Errorf("Compare(%q, %q) = %d, want sign %d", c.a, c.b, got, c.want)
		}
	}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
