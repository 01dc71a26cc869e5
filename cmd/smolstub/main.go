// Command smolstub is the orchestrator for the self-extracting launcher
// state machine: self-open, marker find, metadata read, cache
// hit-or-miss, optional update check, and process hand-off.
//
// Per spec §6, the stub must transparently forward every argv entry to
// the extracted binary except the `--update-config` family, so there is
// no flag.FlagSet here parsing child-owned flags like `--version` out
// of argv: the only stub-private flag is spelled `--smolstub-version`,
// a spelling no extracted binary plausibly defines, gated before
// filtering. Debug tracing follows the teacher's own main.go shape: a
// single atomic bool initialised once at startup (DESIGN NOTES §9:
// "Global _debug_enabled ... -> Single atomic bool initialised in
// main").
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/term"

	"github.com/socketdev/smolstub/internal/cachemgr"
	"github.com/socketdev/smolstub/internal/decompress"
	"github.com/socketdev/smolstub/internal/envcfg"
	"github.com/socketdev/smolstub/internal/handoff"
	"github.com/socketdev/smolstub/internal/marker"
	"github.com/socketdev/smolstub/internal/metadata"
	"github.com/socketdev/smolstub/internal/notify"
	"github.com/socketdev/smolstub/internal/selfopen"
	"github.com/socketdev/smolstub/internal/stuberr"
	"github.com/socketdev/smolstub/internal/updatecheck"
)

const versionString = "smolstub 1.0.0"

var debugEnabled atomic.Bool

func main() {
	debugEnabled.Store(envcfg.DebugEnabled())

	args := os.Args[1:]
	if len(args) == 1 && args[0] == "--smolstub-version" {
		fmt.Println(versionString)
		os.Exit(0)
	}

	os.Exit(run(args))
}

func run(rawArgs []string) int {
	argv := handoff.FilterUpdateConfigArgs(rawArgs)
	trace("starting with %d argv entries after update-config filtering", len(argv))

	self, err := selfopen.Open()
	if err != nil {
		return fatal(err)
	}
	defer self.Close()
	trace("opened self image at %s", self.Path)

	offset, err := locateMarker(self.File)
	if err != nil {
		return fatal(err)
	}
	if _, err := self.File.Seek(offset, io.SeekStart); err != nil {
		return fatal(stuberr.Wrap(stuberr.MarkerNotFound, stuberr.SubMarker, "failed to seek past marker", err))
	}

	meta, err := metadata.Read(self.File, platformMaxUncompressed())
	if err != nil {
		return fatal(err)
	}
	trace("metadata: key=%s compressed=%d uncompressed=%d platform=%+v has_update_config=%v",
		meta.CacheKey, meta.CompressedSize, meta.UncompressedSize, meta.Platform, meta.HasUpdateConfig)

	root, err := cachemgr.ResolveRoot()
	if err != nil {
		return fatal(err)
	}

	binPath, hit := cachemgr.GetCachedBinaryPath(root, meta.CacheKey, meta.UncompressedSize, meta.Platform)
	if hit {
		trace("cache hit: %s", binPath)
	} else {
		trace("cache miss for key %s, decompressing", meta.CacheKey)
		binPath, err = materialize(self.File, meta, root, self.Path)
		if err != nil {
			return fatal(err)
		}
	}

	maybeCheckUpdates(root, meta, binPath)

	return execChild(self, binPath, argv)
}

// locateMarker dispatches to the ELF PT_NOTE walk or the generic
// chunked scan depending on the image's own format, per spec §4.2.
func locateMarker(f *os.File) (int64, error) {
	isELF, err := marker.IsELF(f)
	if err != nil {
		return 0, stuberr.Wrap(stuberr.MarkerNotFound, stuberr.SubMarker, "failed to probe image format", err)
	}
	if isELF {
		return marker.FindInPTNote(f)
	}
	return marker.Find(f)
}

// platformMaxUncompressed returns the compile-time ceiling spec'd for
// this build: a generous ~2 GiB on Linux/macOS, a tighter 100 MiB on
// Windows.
func platformMaxUncompressed() uint64 {
	if runtime.GOOS == "windows" {
		return metadata.WindowsMaxUncompressedSize
	}
	return metadata.MaxUncompressedSize
}

// materialize handles the cache-miss path: read the compressed payload
// (the file cursor is already at meta.DataOffset after metadata.Read),
// decompress it, and write it into the cache.
func materialize(f *os.File, meta *metadata.Metadata, root, originalExe string) (string, error) {
	compressed := make([]byte, meta.CompressedSize)
	if _, err := io.ReadFull(f, compressed); err != nil {
		return "", stuberr.Wrap(stuberr.ReadShort, stuberr.SubCache, "failed to read compressed payload", err)
	}

	out, err := decompress.Decompress(compressed, meta.UncompressedSize)
	if err != nil {
		return "", err
	}

	return cachemgr.WriteToCache(root, meta.CacheKey, out, meta.Platform, originalExe)
}

// maybeCheckUpdates runs the update checker and, if a newer release is
// available, renders the notifier box when stderr is a terminal and
// (if configured) prompts to
// self-update. Every failure here is logged at debug level and
// swallowed: the update path must never block exec.
func maybeCheckUpdates(root string, meta *metadata.Metadata, binPath string) {
	if !meta.HasUpdateConfig || meta.UpdateConfig == nil {
		return
	}
	cfg := meta.UpdateConfig

	sidecar, _ := cachemgr.ReadSidecar(root, meta.CacheKey)
	currentVersion := sidecar.UpdateCheck.LatestKnown
	if currentVersion == "" {
		currentVersion = "0.0.0"
	}

	result, err := updatecheck.Check(context.Background(), cfg, currentVersion)
	if err != nil {
		trace("update check failed: %v", err)
		return
	}
	if !result.UpdateAvailable {
		return
	}

	if term.IsTerminal(int(os.Stderr.Fd())) {
		notify.Render(os.Stderr, result, cfg.BinName, cfg.Command)
	}

	newState := sidecar.UpdateCheck
	newState.LatestKnown = result.LatestVersion
	if cfg.Prompt {
		if notify.Prompt(cfg.PromptDefault) {
			if _, err := notify.RunSelfUpdate(binPath, cfg.Command); err != nil {
				trace("self-update command failed: %v", err)
			}
		}
	}
	if err := cachemgr.UpdateSidecarCheck(root, meta.CacheKey, newState); err != nil {
		trace("failed to persist update-check state: %v", err)
	}
}

func trace(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	fmt.Fprintf(os.Stderr, "[STUB DEBUG] "+format+"\n", args...)
}

func fatal(err error) int {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}
