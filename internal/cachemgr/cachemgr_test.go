package cachemgr_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/socketdev/smolstub/internal/cachemgr"
	"github.com/socketdev/smolstub/internal/metadata"
)

func TestWriteToCacheThenGetCachedBinaryPathHits(t *testing.T) {
	root := t.TempDir()
	plat := metadata.Platform{OS: 0, Arch: 0, Libc: 0}
	payload := []byte("pretend this is a full node binary")

	path, err := cachemgr.WriteToCache(root, "aaaabbbbccccdddd", payload, plat, "/opt/stub/mytool")
	if err != nil {
		t.Fatalf("WriteToCache: %v", err)
	}
	if filepath.Base(path) != "node" {
		t.Fatalf("BinaryPath basename = %q, want node", filepath.Base(path))
	}

	got, hit := cachemgr.GetCachedBinaryPath(root, "aaaabbbbccccdddd", uint64(len(payload)), plat)
	if !hit {
		t.Fatalf("expected a cache hit after WriteToCache")
	}
	if got != path {
		t.Fatalf("GetCachedBinaryPath = %q, want %q", got, path)
	}
}

func TestGetCachedBinaryPathMissesOnSizeMismatch(t *testing.T) {
	root := t.TempDir()
	plat := metadata.Platform{}
	payload := []byte("some bytes")

	if _, err := cachemgr.WriteToCache(root, "1111222233334444", payload, plat, "orig"); err != nil {
		t.Fatalf("WriteToCache: %v", err)
	}

	if _, hit := cachemgr.GetCachedBinaryPath(root, "1111222233334444", uint64(len(payload)+1), plat); hit {
		t.Fatalf("expected a cache miss on size mismatch")
	}
}

func TestGetCachedBinaryPathMissesWhenAbsent(t *testing.T) {
	root := t.TempDir()
	if _, hit := cachemgr.GetCachedBinaryPath(root, "0000000000000000", 10, metadata.Platform{}); hit {
		t.Fatalf("expected a miss for a key never written")
	}
}

func TestWriteToCacheWritesSidecar(t *testing.T) {
	root := t.TempDir()
	plat := metadata.Platform{}
	payload := []byte("payload bytes")

	if _, err := cachemgr.WriteToCache(root, "5555666677778888", payload, plat, "/opt/stub/mytool"); err != nil {
		t.Fatalf("WriteToCache: %v", err)
	}

	if _, err := os.Stat(cachemgr.SidecarPath(root, "5555666677778888")); err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}

	sc, err := cachemgr.ReadSidecar(root, "5555666677778888")
	if err != nil {
		t.Fatalf("ReadSidecar: %v", err)
	}
	if sc.OriginalExe != "/opt/stub/mytool" {
		t.Fatalf("OriginalExe = %q", sc.OriginalExe)
	}
	if sc.Integrity == "" {
		t.Fatalf("expected a non-empty integrity hash")
	}
}

func TestUpdateSidecarCheckPreservesIntegrity(t *testing.T) {
	root := t.TempDir()
	plat := metadata.Platform{}
	payload := []byte("payload bytes")

	if _, err := cachemgr.WriteToCache(root, "9999aaaabbbbcccc", payload, plat, "orig"); err != nil {
		t.Fatalf("WriteToCache: %v", err)
	}
	before, err := cachemgr.ReadSidecar(root, "9999aaaabbbbcccc")
	if err != nil {
		t.Fatalf("ReadSidecar: %v", err)
	}

	newState := cachemgr.UpdateCheckState{LastCheck: 100, LastNotification: 100, LatestKnown: "2.0.0"}
	if err := cachemgr.UpdateSidecarCheck(root, "9999aaaabbbbcccc", newState); err != nil {
		t.Fatalf("UpdateSidecarCheck: %v", err)
	}

	after, err := cachemgr.ReadSidecar(root, "9999aaaabbbbcccc")
	if err != nil {
		t.Fatalf("ReadSidecar: %v", err)
	}
	if after.Integrity != before.Integrity {
		t.Fatalf("Integrity changed: %q -> %q", before.Integrity, after.Integrity)
	}
	if after.UpdateCheck.LatestKnown != "2.0.0" {
		t.Fatalf("LatestKnown = %q", after.UpdateCheck.LatestKnown)
	}
}

func TestResolveRootPrefersDlxDirOverride(t *testing.T) {
	t.Setenv("SOCKET_DLX_DIR", filepath.Join(t.TempDir(), "custom-dlx"))
	t.Setenv("SOCKET_HOME", "")
	t.Setenv("HOME", "")

	root, err := cachemgr.ResolveRoot()
	if err != nil {
		t.Fatalf("ResolveRoot: %v", err)
	}
	if filepath.Base(root) != "custom-dlx" {
		t.Fatalf("ResolveRoot = %q, want basename custom-dlx", root)
	}
}
