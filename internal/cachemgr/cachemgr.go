// Package cachemgr resolves the content-addressed cache root, detects
// cache hits, and materializes cache misses via write-to-temp-then-rename.
//
// Grounded on the teacher's own on-disk conventions (pe_reader.go and
// elf.go both treat a file's existence and size as the cheap signal
// before doing anything expensive) and on
// baaaaaaaka-codex-helper/internal/update/update.go, which hashes a
// downloaded asset and writes it atomically via a temp-file rename.
package cachemgr

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/socketdev/smolstub/internal/envcfg"
	"github.com/socketdev/smolstub/internal/metadata"
	"github.com/socketdev/smolstub/internal/stuberr"
)

// SidecarName is the filename of the per-entry metadata sidecar.
const SidecarName = "dlx.json"

// UpdateCheckState is the update-checker bookkeeping persisted in the
// sidecar.
type UpdateCheckState struct {
	LastCheck        int64  `json:"last_check"`
	LastNotification int64  `json:"last_notification"`
	LatestKnown      string `json:"latest_known"`
}

// Sidecar is the full contents of dlx.json.
type Sidecar struct {
	Integrity   string           `json:"integrity"`
	OriginalExe string           `json:"original_exe"`
	UpdateCheck UpdateCheckState `json:"update_check"`
}

// ResolveRoot picks the cache root directory per spec §4.5: a full
// override, then a SOCKET_HOME-relative path, then a home-relative
// path. It never creates the directory; callers create it on write.
func ResolveRoot() (string, error) {
	if dir := envcfg.DlxDir(); dir != "" {
		return dir, nil
	}
	if home := envcfg.SocketHome(); home != "" {
		return filepath.Join(home, "_dlx"), nil
	}
	if home := envcfg.HomeDir(); home != "" {
		return filepath.Join(home, ".socket", "_dlx"), nil
	}
	return "", stuberr.New(stuberr.CacheIOFailed, stuberr.SubCache, "no SOCKET_DLX_DIR, SOCKET_HOME, or home directory could be resolved")
}

// EntryDir returns <root>/<key>.
func EntryDir(root, key string) string {
	return filepath.Join(root, key)
}

// BinaryPath returns <root>/<key>/<binary_name>.
func BinaryPath(root, key string, plat metadata.Platform) string {
	return filepath.Join(EntryDir(root, key), plat.BinaryName())
}

// SidecarPath returns <root>/<key>/dlx.json.
func SidecarPath(root, key string) string {
	return filepath.Join(EntryDir(root, key), SidecarName)
}

// GetCachedBinaryPath implements the hit-detection contract: the
// binary exists and its size equals uncompressedSize. This is
// intentionally just an existence+size check — the stub is on the cold
// path and must stay small; integrity is recomputed only on write.
func GetCachedBinaryPath(root, key string, uncompressedSize uint64, plat metadata.Platform) (string, bool) {
	path := BinaryPath(root, key, plat)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	if uint64(info.Size()) != uncompressedSize {
		return "", false
	}
	return path, true
}

// WriteToCache materializes a cache miss: it hashes buf, creates the
// entry directory, writes the binary via temp-then-rename (atomic on
// POSIX, best-effort on Windows), chmods it executable, and writes the
// sidecar. Two racing stubs for the same key may both run this and
// both succeed; the rename makes the binary consistent and the sidecar
// is last-writer-wins by design (see spec §5).
func WriteToCache(root, key string, buf []byte, plat metadata.Platform, originalExe string) (string, error) {
	dir := EntryDir(root, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", stuberr.Wrap(stuberr.CacheIOFailed, stuberr.SubCache, "failed to create cache directory", err)
	}

	integrity := computeIntegrity(buf)

	binPath := BinaryPath(root, key, plat)
	tmpPath := binPath + ".tmp"
	if err := os.WriteFile(tmpPath, buf, 0o644); err != nil {
		return "", stuberr.Wrap(stuberr.CacheIOFailed, stuberr.SubCache, "failed to write temp binary", err)
	}
	if err := os.Rename(tmpPath, binPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", stuberr.Wrap(stuberr.CacheIOFailed, stuberr.SubCache, "failed to rename temp binary into place", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(binPath, 0o755); err != nil {
			return "", stuberr.Wrap(stuberr.CacheIOFailed, stuberr.SubCache, "failed to chmod cached binary executable", err)
		}
	}

	sidecar := Sidecar{
		Integrity:   integrity,
		OriginalExe: originalExe,
		UpdateCheck: UpdateCheckState{LastCheck: 0, LastNotification: 0, LatestKnown: ""},
	}
	if err := writeSidecar(root, key, sidecar); err != nil {
		return "", err
	}

	return binPath, nil
}

// ReadSidecar loads the sidecar for an existing cache entry, used by
// the update checker to learn the current version and last-check time.
func ReadSidecar(root, key string) (Sidecar, error) {
	var sc Sidecar
	data, err := os.ReadFile(SidecarPath(root, key))
	if err != nil {
		return sc, stuberr.Wrap(stuberr.CacheIOFailed, stuberr.SubCache, "failed to read sidecar", err)
	}
	if err := json.Unmarshal(data, &sc); err != nil {
		return sc, stuberr.Wrap(stuberr.CacheIOFailed, stuberr.SubCache, "failed to parse sidecar JSON", err)
	}
	return sc, nil
}

// UpdateSidecarCheck rewrites only the update_check portion of the
// sidecar, preserving integrity/original_exe. It is last-writer-wins:
// no lock is taken, matching spec §5's "two racers may both write the
// sidecar; the later write wins" guarantee.
func UpdateSidecarCheck(root, key string, state UpdateCheckState) error {
	sc, err := ReadSidecar(root, key)
	if err != nil {
		// If the sidecar is unreadable we still try to persist the
		// update-check outcome rather than losing it.
		sc = Sidecar{}
	}
	sc.UpdateCheck = state
	return writeSidecar(root, key, sc)
}

func writeSidecar(root, key string, sc Sidecar) error {
	data, err := json.Marshal(sc)
	if err != nil {
		return stuberr.Wrap(stuberr.CacheIOFailed, stuberr.SubCache, "failed to encode sidecar JSON", err)
	}
	if err := os.WriteFile(SidecarPath(root, key), data, 0o644); err != nil {
		return stuberr.Wrap(stuberr.CacheIOFailed, stuberr.SubCache, "failed to write sidecar", err)
	}
	return nil
}

func computeIntegrity(buf []byte) string {
	sum := sha256.Sum256(buf)
	return "sha256-" + hex.EncodeToString(sum[:])
}
