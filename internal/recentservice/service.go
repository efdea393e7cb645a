// Package recentservice is the owning caller of a query engine: it turns
// snapshot changes into query restarts or stale flags and exposes the
// operations the HTTP and MCP surfaces need.
package recentservice

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/recents/internal/checksum"
	"github.com/starford/recents/internal/models"
	"github.com/starford/recents/internal/query"
	"github.com/starford/recents/internal/recents"
)

// Recents is the part of recents.Cache the service depends on.
type Recents interface {
	query.Source
	OnChange(fn func(models.Snapshot)) (unsubscribe func())
	WaitForInitialLoad(ctx context.Context, timeout time.Duration) bool
	RequestRefresh()
	Stats() recents.Stats
}

// Page is one page of search results.
type Page struct {
	Items   []query.Item `json:"items"`
	HasMore bool         `json:"has_more"`
}

// Status describes the cache and the current query.
type Status struct {
	recents.Stats
	Fingerprint string      `json:"fingerprint"`
	Query       string      `json:"query"`
	Token       query.Token `json:"token"`
	Stale       bool        `json:"stale"`
}

// Service coordinates the recents cache and one query engine.
type Service struct {
	cache  Recents
	engine *query.Engine
	logger *slog.Logger
	unsub  func()

	mu    sync.Mutex
	stale bool
}

// New creates a service and subscribes it to cache changes.
func New(cache Recents, opts query.Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		cache:  cache,
		engine: query.NewEngine(cache, opts),
		logger: logger,
	}
	s.unsub = cache.OnChange(s.snapshotChanged)
	return s
}

// Close unsubscribes from the cache.
func (s *Service) Close() {
	s.unsub()
}

// snapshotChanged restarts a blank query so it follows the cache, and marks
// any other query as stale until the caller searches again. The restart only
// lands if no search replaced the blank query in the meantime.
func (s *Service) snapshotChanged(snap models.Snapshot) {
	q, tok, ok := s.engine.Current()
	if !ok {
		return
	}
	if strings.TrimSpace(q) == "" {
		if s.engine.RestartIfCurrent(q, tok, query.NewToken()) {
			s.logger.Debug("recents: blank query restarted", slog.Int("count", len(snap)))
			return
		}
		// A search replaced the blank query meanwhile and may have filtered
		// the previous snapshot.
	}
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// Recents returns the current snapshot and its fingerprint.
func (s *Service) Recents() (models.Snapshot, string) {
	snap := s.cache.Snapshot()
	return snap, checksum.Snapshot(snap)
}

// Search restarts the query and returns the token that pages it.
func (s *Service) Search(q string) query.Token {
	tok := query.NewToken()
	s.engine.Restart(q, tok)
	s.mu.Lock()
	s.stale = false
	s.mu.Unlock()
	return tok
}

// Next returns the next page for token. A token that is no longer current
// yields an empty page.
func (s *Service) Next(ctx context.Context, token query.Token) (Page, error) {
	items, err := s.engine.LoadNextPage(ctx, token)
	if err != nil {
		return Page{}, err
	}
	hasMore := false
	if s.engine.Token() == token {
		hasMore = s.engine.HasMore()
	}
	return Page{Items: items, HasMore: hasMore}, nil
}

// Refresh asks the cache for a debounced rescan.
func (s *Service) Refresh() {
	s.cache.RequestRefresh()
}

// WaitReady waits for the initial load; see recents.Cache.WaitForInitialLoad.
func (s *Service) WaitReady(ctx context.Context, timeout time.Duration) bool {
	return s.cache.WaitForInitialLoad(ctx, timeout)
}

// Status returns the cache and query state.
func (s *Service) Status() Status {
	_, fp := s.Recents()
	s.mu.Lock()
	stale := s.stale
	s.mu.Unlock()
	return Status{
		Stats:       s.cache.Stats(),
		Fingerprint: fp,
		Query:       s.engine.Query(),
		Token:       s.engine.Token(),
		Stale:       stale,
	}
}
