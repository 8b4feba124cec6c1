package nexus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nexusfetch/internal"
	"nexusfetch/utils"
)

// LinkCache persists resolved download links on disk, one flat file per mod
// file identifier, so repeated resolutions within the freshness window cost
// no API quota. Freshness is judged by file modification time alone.
//
// Cache IO failures degrade to an origin resolution; a broken cache directory
// must never block a download.
type LinkCache struct {
	dir string
	ttl time.Duration
	fs  *utils.FileOperations

	// Overridable in tests.
	now func() time.Time
}

// OriginResolver resolves a download link against the API origin
type OriginResolver func(ctx context.Context, id internal.ModFileID) (string, error)

// NewLinkCache creates a cache rooted at dir with the given freshness window
func NewLinkCache(dir string, ttl time.Duration) *LinkCache {
	return &LinkCache{
		dir: dir,
		ttl: ttl,
		fs:  utils.NewFileOperations(),
		now: time.Now,
	}
}

// Resolve returns the download link for id, serving a fresh cached entry when
// one exists and forceFresh is unset. On a miss, an expired entry or a forced
// refresh it calls origin exactly once and persists the result.
func (lc *LinkCache) Resolve(ctx context.Context, id internal.ModFileID, forceFresh bool, origin OriginResolver) (string, error) {
	path := lc.entryPath(id)

	if !forceFresh {
		if link, ok := lc.readFresh(path); ok {
			internal.LogDebug("Download link for %s served from cache", id)
			return link, nil
		}
	}

	link, err := origin(ctx, id)
	if err != nil {
		return "", err
	}

	if err := lc.fs.EnsureDir(lc.dir); err != nil {
		internal.LogWarn("Failed to create link cache directory: %v", err)
		return link, nil
	}
	if err := lc.fs.AtomicWriteFile(path, []byte(link), 0644); err != nil {
		internal.LogWarn("Failed to cache download link for %s: %v", id, err)
	}
	return link, nil
}

// readFresh returns the cached link when the entry exists, is younger than
// the freshness window and is non-empty
func (lc *LinkCache) readFresh(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			internal.LogWarn("Link cache stat failed: %v", err)
		}
		return "", false
	}
	if lc.now().Sub(info.ModTime()) >= lc.ttl {
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		internal.LogWarn("Link cache read failed: %v", err)
		return "", false
	}
	link := strings.TrimSpace(string(data))
	if link == "" {
		return "", false
	}
	return link, true
}

func (lc *LinkCache) entryPath(id internal.ModFileID) string {
	return filepath.Join(lc.dir, fmt.Sprintf("link-%s.txt", id))
}
