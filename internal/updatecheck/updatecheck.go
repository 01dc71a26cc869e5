// Package updatecheck performs the bounded-time, retried release check
// against a configured HTTPS index and decides whether a newer stub is
// available.
//
// The HTTP client shape — requests scoped by a context deadline, a
// plain *http.Client, GitHub-style headers, and a JSON
// unmarshal of the response body — is grounded on
// baaaaaaaka-codex-helper/internal/update/update.go, the one complete
// releases-API client in the retrieval pack. Every error this package
// returns is recovered locally by the caller: a failed update check
// must never block exec.
package updatecheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/socketdev/smolstub/internal/envcfg"
	"github.com/socketdev/smolstub/internal/glob"
	"github.com/socketdev/smolstub/internal/metadata"
	"github.com/socketdev/smolstub/internal/semver"
	"github.com/socketdev/smolstub/internal/stuberr"
)

const (
	totalTimeout     = 10 * time.Second
	maxResponseBytes = 256 << 10
	maxRetries       = 2
	initialBackoff   = 5 * time.Second
)

// Result is the outcome of a successful check.
type Result struct {
	UpdateAvailable bool
	CurrentVersion  string
	LatestVersion   string
	LatestTag       string
}

type release struct {
	TagName     string          `json:"tag_name"`
	PublishedAt string          `json:"published_at"`
	Assets      json.RawMessage `json:"assets"`
}

// Check runs the full disable-rule gate, HTTP fetch, parse, tag match,
// and version compare described in spec §4.6. It never returns an
// error to callers that care about exec continuing: any failure is
// reported as (Result{}, err) where err is always a
// *stuberr.Error{Kind: UpdateCheckFailed}, which callers are expected
// to log and ignore. Whether to prompt on a TTY is a notifier concern,
// not this package's: a non-interactive process still runs the check.
func Check(ctx context.Context, cfg *metadata.UpdateConfig, currentVersion string) (Result, error) {
	if cfg == nil || !cfg.Enabled {
		return Result{}, nil
	}
	if envcfg.CIOrUpdatesDisabled() {
		return Result{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, totalTimeout)
	defer cancel()

	body, err := fetchWithRetry(ctx, cfg.URL)
	if err != nil {
		return Result{}, stuberr.Wrap(stuberr.UpdateCheckFailed, stuberr.SubUpdate, "release index fetch failed", err)
	}

	rel, err := latestQualifyingRelease(body, cfg.TagPattern)
	if err != nil {
		return Result{}, stuberr.Wrap(stuberr.UpdateCheckFailed, stuberr.SubUpdate, "release index parse failed", err)
	}
	if rel == nil {
		return Result{CurrentVersion: currentVersion}, nil
	}

	latestVersion := versionFromTag(rel.TagName, cfg.TagPattern)
	available := semver.Compare(latestVersion, currentVersion) > 0

	return Result{
		UpdateAvailable: available,
		CurrentVersion:  currentVersion,
		LatestVersion:   latestVersion,
		LatestTag:       rel.TagName,
	}, nil
}

func versionFromTag(tag, pattern string) string {
	if !strings.Contains(pattern, "*") {
		return tag
	}
	prefix := glob.LiteralPrefix(pattern)
	return strings.TrimPrefix(tag, prefix)
}

// latestQualifyingRelease parses the JSON array of releases, skips
// placeholder releases with an empty assets array, filters by
// tag_pattern, and keeps the one with the lexicographically largest
// published_at (ISO 8601 sorts correctly as a string).
func latestQualifyingRelease(body []byte, tagPattern string) (*release, error) {
	var releases []release
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, err
	}

	var candidates []release
	for _, r := range releases {
		if isEmptyAssets(r.Assets) {
			continue
		}
		if !glob.Match(tagPattern, r.TagName) {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].PublishedAt < candidates[j].PublishedAt
	})
	best := candidates[len(candidates)-1]
	return &best, nil
}

func isEmptyAssets(raw json.RawMessage) bool {
	var assets []json.RawMessage
	if err := json.Unmarshal(raw, &assets); err != nil {
		return true
	}
	return len(assets) == 0
}

func fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
		body, err := fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"?per_page=30", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "socket-stub-updater/1.0")
	if token := envcfg.GitHubToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release index returned %s", resp.Status)
	}

	limited := io.LimitReader(resp.Body, maxResponseBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("release index response exceeds %d bytes", maxResponseBytes)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("release index returned an empty body")
	}
	return body, nil
}
