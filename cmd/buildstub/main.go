// Command buildstub assembles a synthetic stub image from a binary
// payload, for use as a fixture in integration tests and manual
// exercise of the extraction path. It is not part of the runtime
// contract — production stubs are produced by a separate build
// pipeline this module does not implement — it exists purely so the
// smolstub state machine can be driven end to end against a real file
// on disk instead of an in-memory reader.
package main

import (
	"crypto/sha1"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/socketdev/smolstub/internal/fixture"
	"github.com/socketdev/smolstub/internal/metadata"
)

func main() {
	var (
		payloadPath = flag.String("payload", "", "path to the uncompressed binary to embed")
		outPath     = flag.String("out", "", "path to write the assembled stub image to")
		updateURL   = flag.String("update-url", "", "release index URL for the embedded update config (omit to skip it)")
		tagPattern  = flag.String("tag-pattern", "v*", "glob pattern release tags must match")
		command     = flag.String("command", "", "self-update command to record in the config")
		binname     = flag.String("binname", "node", "binary name to record in the config")
	)
	flag.Parse()

	if *payloadPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: buildstub -payload <file> -out <file> [-update-url URL] [-tag-pattern PATTERN] [-command CMD] [-binname NAME]")
		os.Exit(2)
	}

	if err := run(*payloadPath, *outPath, *updateURL, *tagPattern, *command, *binname); err != nil {
		fmt.Fprintln(os.Stderr, "buildstub:", err)
		os.Exit(1)
	}
}

func run(payloadPath, outPath, updateURL, tagPattern, command, binname string) error {
	payload, err := os.ReadFile(payloadPath)
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}

	compressed := fixture.CompressPayload(payload)

	var updateConfig []byte
	if updateURL != "" {
		updateConfig = fixture.BuildUpdateConfig(fixture.UpdateConfigFields{
			Enabled:       true,
			Prompt:        true,
			PromptDefault: 'y',
			URL:           updateURL,
			TagPattern:    tagPattern,
			Command:       command,
			BinName:       binname,
		})
	}

	h := fixture.HeaderFields{
		CompressedSize:   uint64(len(compressed)),
		UncompressedSize: uint64(len(payload)),
		CacheKey:         cacheKeyFor(payload),
		Platform:         hostPlatform(),
		UpdateConfig:     updateConfig,
	}

	launcherPrefix := []byte("#!/bin/sh\n# buildstub-generated launcher placeholder\n")
	image := fixture.BuildImage(launcherPrefix, h, compressed)

	if err := os.WriteFile(outPath, image, 0o755); err != nil {
		return fmt.Errorf("writing stub image: %w", err)
	}
	return nil
}

// cacheKeyFor derives a stable 16-hex-character key from the payload's
// contents, the same role a real build pipeline's content hash plays.
func cacheKeyFor(payload []byte) string {
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])[:16]
}

func hostPlatform() metadata.Platform {
	var p metadata.Platform
	switch runtime.GOOS {
	case "darwin":
		p.OS = 1
	case "windows":
		p.OS = 2
	default:
		p.OS = 0
	}
	switch runtime.GOARCH {
	case "arm64":
		p.Arch = 1
	case "386":
		p.Arch = 2
	case "arm":
		p.Arch = 3
	default:
		p.Arch = 0
	}
	p.Libc = 255
	return p
}
