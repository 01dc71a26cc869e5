// Package envcfg resolves every environment variable the stub consults,
// in the precedence order spec'd for each setting. It wraps
// github.com/xyproto/env/v2, the teacher's own env-reading dependency,
// which the copied tree carried but never called.
package envcfg

import (
	"runtime"
	"strings"

	env "github.com/xyproto/env/v2"
)

// StubPath returns the path override for the running executable, or ""
// if SOCKET_SMOL_STUB_PATH is unset or empty.
func StubPath() string {
	return env.Str("SOCKET_SMOL_STUB_PATH", "")
}

// DlxDir returns the full cache-root override, or "" if unset.
func DlxDir() string {
	return env.Str("SOCKET_DLX_DIR", "")
}

// SocketHome returns SOCKET_HOME, or "" if unset.
func SocketHome() string {
	return env.Str("SOCKET_HOME", "")
}

// HomeDir returns the best home-directory guess for the current platform:
// HOME everywhere, falling back to USERPROFILE or HOMEDRIVE+HOMEPATH on
// Windows.
func HomeDir() string {
	if h := env.Str("HOME", ""); h != "" {
		return h
	}
	if runtime.GOOS == "windows" {
		if up := env.Str("USERPROFILE", ""); up != "" {
			return up
		}
		drive := env.Str("HOMEDRIVE", "")
		path := env.Str("HOMEPATH", "")
		if drive != "" && path != "" {
			return drive + path
		}
	}
	return ""
}

// GitHubToken returns the bearer token for the update checker, preferring
// GH_TOKEN over GITHUB_TOKEN.
func GitHubToken() string {
	if t := env.Str("GH_TOKEN", ""); t != "" {
		return t
	}
	return env.Str("GITHUB_TOKEN", "")
}

// DebugEnabled reports whether DEBUG=1 or DEBUG=true was set at process
// start. Callers should snapshot this once; it is not meant to be
// re-read per call.
func DebugEnabled() bool {
	v := strings.ToLower(env.Str("DEBUG", ""))
	return v == "1" || v == "true"
}

// UTF8Capable reports whether LANG or LC_ALL advertises a UTF-8 locale,
// used by the notifier to choose box-drawing glyphs over ASCII.
func UTF8Capable() bool {
	for _, v := range []string{env.Str("LC_ALL", ""), env.Str("LANG", "")} {
		lv := strings.ToLower(v)
		if strings.Contains(lv, "utf-8") || strings.Contains(lv, "utf8") {
			return true
		}
	}
	return false
}

// CIOrUpdatesDisabled reports whether an implementation-defined
// environment variable disables the update check outright.
func CIOrUpdatesDisabled() bool {
	return env.Bool("CI") || env.Bool("SOCKET_NO_UPDATE_NOTIFIER") || env.Bool("NO_UPDATE_NOTIFIER")
}
