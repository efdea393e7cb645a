// Package scanner turns the pointer files of a directory into a validated,
// deduplicated, recency-ordered snapshot.
package scanner

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/recents/internal/apperr"
	"github.com/starford/recents/internal/metrics"
	"github.com/starford/recents/internal/models"
	"github.com/starford/recents/internal/resolvecache"
	"github.com/starford/recents/internal/shortcut"
	"github.com/starford/recents/internal/storage"
)

// Scanner builds snapshots from a storage.Provider. A Scanner owns its
// resolver cache and must not run Scan concurrently with itself.
type Scanner struct {
	store  storage.Provider
	cache  *resolvecache.Cache
	logger *slog.Logger

	// Resolver cache counters already reported to metrics.
	hits, misses int
}

// New creates a Scanner reading pointer files from store and resolving them
// through a fresh resolver cache in front of resolver.
func New(store storage.Provider, resolver shortcut.Resolver, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		store:  store,
		cache:  resolvecache.New(resolver),
		logger: logger,
	}
}

// Root returns the directory being scanned.
func (s *Scanner) Root() string { return s.store.Root() }

// CacheLen returns the number of memoized resolutions.
func (s *Scanner) CacheLen() int { return s.cache.Len() }

// Scan lists the pointer directory and accepts at most maxCount items.
//
// Pointer files are visited newest first. Each is resolved; empty and stale
// local targets are skipped, network targets are accepted without touching
// them. Targets are deduplicated by models.TargetKey. When the last accepted
// item is the folder containing the current target, the folder is replaced by
// the current entry and no longer counts toward maxCount.
//
// Failures for individual pointer files are logged and skipped. A listing
// failure or cancellation of ctx aborts the scan with an error.
func (s *Scanner) Scan(ctx context.Context, maxCount int) (models.Snapshot, error) {
	defer s.reportLookups()

	files, err := s.store.List()
	if err != nil {
		return nil, err
	}
	if maxCount <= 0 {
		return models.Snapshot{}, nil
	}

	accepted := newCollection(min(maxCount, len(files)))
	for _, pf := range files {
		if accepted.Len() >= maxCount {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		target, err := s.cache.Resolve(ctx, pf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, apperr.ErrNotFound) {
				s.logger.Debug("scan: skipped unresolvable pointer",
					slog.String("path", pf.Path), slog.String("error", err.Error()))
			} else {
				s.logger.Warn("scan: resolve failed",
					slog.String("path", pf.Path), slog.String("error", err.Error()))
			}
			continue
		}

		if !models.IsNetworkPath(target.Path) && !s.store.Exists(target.Path) {
			s.logger.Debug("scan: skipped stale target",
				slog.String("path", pf.Path), slog.String("target", target.Path))
			continue
		}

		if !accepted.claim(target.Path) {
			continue
		}

		if removed, ok := accepted.collapseParentOf(target.Path); ok {
			s.logger.Debug("scan: collapsed parent folder",
				slog.String("folder", removed.TargetPath), slog.String("target", target.Path))
		}

		if accepted.sameAsLast(target.Path) {
			continue
		}

		accepted.add(models.RecentItem{
			SourcePath:   pf.Path,
			TargetPath:   target.Path,
			DisplayName:  displayName(target),
			LastModified: pf.ModTime,
		})
	}

	if removed := s.cache.Prune(files); removed > 0 {
		s.logger.Debug("scan: pruned resolver cache", slog.Int("removed", removed))
	}

	return accepted.snapshot(), nil
}

// reportLookups forwards the resolver cache activity since the last report.
func (s *Scanner) reportLookups() {
	hits, misses := s.cache.Stats()
	metrics.RecordResolverLookups(hits-s.hits, misses-s.misses)
	s.hits, s.misses = hits, misses
}

func displayName(t shortcut.Target) string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Path
}
