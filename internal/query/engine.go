// Package query filters and pages the recent-items snapshot for a caller.
//
// A caller starts a query with Restart and a fresh Token, then pulls pages
// with LoadNextPage passing the same token. A page requested with any other
// token comes back empty, so results of an abandoned query never leak into
// a newer one. The engine does not follow snapshot changes on its own; the
// caller restarts the query when it wants fresh results.
package query

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/recents/internal/metrics"
	"github.com/starford/recents/internal/models"
)

// DefaultPageSize is the number of items LoadNextPage returns when Options
// leaves PageSize unset.
const DefaultPageSize = 20

// Token identifies one query generation.
type Token = uuid.UUID

// NewToken returns a new unique token.
func NewToken() Token { return uuid.New() }

// Source supplies the snapshot a query filters.
type Source interface {
	Snapshot() models.Snapshot
}

// Options configures an Engine.
type Options struct {
	PageSize int
	// IsDir classifies local targets as folders when converting items.
	IsDir func(path string) bool
}

// Engine holds the filter state of one caller.
type Engine struct {
	src      Source
	pageSize int
	isDir    func(string) bool

	mu          sync.Mutex
	initialized bool
	token       Token
	query       string
	filtered    models.Snapshot
	cursor      int
}

// NewEngine creates an engine over src.
func NewEngine(src Source, opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &Engine{src: src, pageSize: opts.PageSize, isDir: opts.IsDir}
}

// Restart filters the current snapshot with q and makes token the only one
// LoadNextPage accepts. Concurrent restarts take effect in the order they
// acquire the engine, so the last call made is the one left installed.
func (e *Engine) Restart(q string, token Token) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.install(q, token)
}

// RestartIfCurrent restarts with q and next only while expect is still the
// current token. It reports whether the restart happened.
func (e *Engine) RestartIfCurrent(q string, expect, next Token) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized || e.token != expect {
		return false
	}
	e.install(q, next)
	return true
}

// install must be called with e.mu held. The source only takes its own lock
// and never calls back into the engine.
func (e *Engine) install(q string, token Token) {
	e.initialized = true
	e.token = token
	e.query = q
	e.filtered = filter(e.src.Snapshot(), q)
	e.cursor = 0
	metrics.RecordQueryRestart()
}

// LoadNextPage returns up to one page of items and advances the cursor. It
// returns an empty page when token is not the current one, including when
// the query is restarted while the page is being built. Cancelling ctx
// stops the conversion and returns ctx.Err().
func (e *Engine) LoadNextPage(ctx context.Context, token Token) ([]Item, error) {
	e.mu.Lock()
	if !e.initialized || e.token != token {
		e.mu.Unlock()
		metrics.RecordQueryPage("stale")
		return []Item{}, nil
	}
	end := min(e.cursor+e.pageSize, len(e.filtered))
	page := e.filtered[e.cursor:end]
	e.cursor = end
	e.mu.Unlock()

	items := make([]Item, 0, len(page))
	for _, it := range page {
		if err := ctx.Err(); err != nil {
			metrics.RecordQueryPage("canceled")
			return nil, err
		}
		items = append(items, NewItem(it, e.isDir))
	}

	e.mu.Lock()
	current := e.token == token
	e.mu.Unlock()
	if !current {
		metrics.RecordQueryPage("stale")
		return []Item{}, nil
	}
	metrics.RecordQueryPage("ok")
	return items, nil
}

// HasMore reports whether the current query has unread results.
func (e *Engine) HasMore() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized && e.cursor < len(e.filtered)
}

// IsInitialized reports whether Restart was called at least once.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Current returns the query text and token as one consistent pair, and
// whether Restart was called at least once.
func (e *Engine) Current() (q string, token Token, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query, e.token, e.initialized
}

// Query returns the current query text.
func (e *Engine) Query() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query
}

// Token returns the current token.
func (e *Engine) Token() Token {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.token
}
