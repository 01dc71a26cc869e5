package glob_test

import (
	"testing"

	"github.com/socketdev/smolstub/internal/glob"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"", "anything", true},
		{"v*", "v1.2.3", true},
		{"v*", "1.2.3", false},
		{"node-v*", "node-v20.11.0", true},
		{"node-v*", "node-v20.11.0-extra", true},
		{"v?.0.0", "v1.0.0", true},
		{"v?.0.0", "v10.0.0", false},
		{"exact", "exact", true},
		{"exact", "exacts", false},
		{"*", "", true},
		{"*-rc*", "v1.0.0-rc1", true},
		{"*-rc*", "v1.0.0", false},
	}
	for _, c := range cases {
		if got := glob.Match(c.pattern, c.s); got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.pattern, c.s, got, c.want)
		}
	}
}

func TestLiteralPrefix(t *testing.T) {
	cases := []struct{ pattern, want string }{
		{"v*", "v"},
		{"node-v*-extra", "node-v"},
		{"noglobhere", "noglobhere"},
		{"*", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := glob.LiteralPrefix(c.pattern); got != c.want {
			t.Errorf("LiteralPrefix(%q) = %q, want %q", c.pattern, got, c.want)
		}
	}
}
