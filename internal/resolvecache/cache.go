// Package resolvecache memoizes shortcut resolution keyed by pointer file and
// its modification time.
package resolvecache

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/starford/recents/internal/apperr"
	"github.com/starford/recents/internal/models"
	"github.com/starford/recents/internal/shortcut"
)

// entry holds one memoized outcome. A nil target records a failed or empty
// resolution.
type entry struct {
	modTime time.Time
	target  *shortcut.Target
}

// Cache wraps a shortcut.Resolver. It is not safe for concurrent use; the
// scanner serializes access.
type Cache struct {
	resolver shortcut.Resolver
	entries  map[string]entry

	hits   int
	misses int
}

// New creates an empty cache in front of resolver.
func New(resolver shortcut.Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		entries:  make(map[string]entry),
	}
}

// foldCase reports whether pointer paths compare case-insensitively. Only
// Windows file systems fold case; elsewhere A.lnk and a.lnk are two files.
var foldCase = runtime.GOOS == "windows"

func key(path string) string {
	if foldCase {
		return strings.ToLower(path)
	}
	return path
}

// Resolve returns the target of pf. Results, including failures, are reused
// for as long as the pointer file keeps the modification time they were
// computed for. A failed or empty resolution yields an error wrapping
// apperr.ErrNotFound, both when computed and when served from the cache.
func (c *Cache) Resolve(ctx context.Context, pf models.PointerFile) (shortcut.Target, error) {
	k := key(pf.Path)
	if e, ok := c.entries[k]; ok {
		if e.modTime.Equal(pf.ModTime) {
			c.hits++
			if e.target == nil {
				return shortcut.Target{}, fmt.Errorf("resolvecache: %s (cached): %w", pf.Path, apperr.ErrNotFound)
			}
			return *e.target, nil
		}
		delete(c.entries, k)
	}

	c.misses++
	t, err := c.resolver.Resolve(ctx, pf.Path)
	if err != nil {
		if ctx.Err() != nil {
			// Cancellation says nothing about the pointer file; don't remember it.
			return shortcut.Target{}, err
		}
		c.entries[k] = entry{modTime: pf.ModTime}
		return shortcut.Target{}, fmt.Errorf("resolvecache: %w: %w", apperr.ErrNotFound, err)
	}
	if strings.TrimSpace(t.Path) == "" {
		c.entries[k] = entry{modTime: pf.ModTime}
		return shortcut.Target{}, fmt.Errorf("resolvecache: %s has empty target: %w", pf.Path, apperr.ErrNotFound)
	}
	c.entries[k] = entry{modTime: pf.ModTime, target: &t}
	return t, nil
}

// Prune drops every entry whose pointer file is not in live.
func (c *Cache) Prune(live []models.PointerFile) int {
	keep := make(map[string]struct{}, len(live))
	for _, pf := range live {
		keep[key(pf.Path)] = struct{}{}
	}
	removed := 0
	for k := range c.entries {
		if _, ok := keep[k]; !ok {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of memoized outcomes.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats returns the hit and miss counters since creation.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}
