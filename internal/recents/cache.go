// Package recents owns the live recent-items snapshot: it watches the pointer
// directory, debounces bursts of changes into rescans and tells listeners
// when the ordered list of targets actually changed.
package recents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/starford/recents/internal/apperr"
	"github.com/starford/recents/internal/metrics"
	"github.com/starford/recents/internal/models"
	"github.com/starford/recents/internal/scanner"
	"github.com/starford/recents/internal/shortcut"
	"github.com/starford/recents/internal/storage"
)

const (
	DefaultMaxItems = 500
	DefaultDebounce = 500 * time.Millisecond
)

// ErrRefreshPending is returned by Refresh when another scan holds the
// rescan guard. The refresh has been re-armed on the debouncer.
var ErrRefreshPending = errors.New("recents: refresh already running")

// Options configures a Cache.
type Options struct {
	MaxItems int
	Debounce time.Duration
	// Watch enables the fsnotify watcher on the provider's root.
	Watch  bool
	Logger *slog.Logger
}

// Stats describes the cache for status endpoints.
type Stats struct {
	Initialized   bool      `json:"initialized"`
	Count         int       `json:"count"`
	LastScan      time.Time `json:"last_scan"`
	LastError     string    `json:"last_error,omitempty"`
	ResolverCache int       `json:"resolver_cache"`
}

type changeListener struct {
	id int
	fn func(models.Snapshot)
}

type readyListener struct {
	id int
	fn func()
}

// Cache is the thread-safe owner of the current snapshot.
type Cache struct {
	scanner  *scanner.Scanner
	maxItems int
	logger   *slog.Logger

	// guard admits one scan at a time. It is never held together with mu
	// while waiting.
	guard    *semaphore.Weighted
	debounce *Debouncer

	mu        sync.Mutex
	items     models.Snapshot
	loaded    bool
	scanned   bool
	closed    bool
	lastScan  time.Time
	lastErr   string
	cacheLen  int
	onChange  []changeListener
	onReady   []readyListener
	nextID    int
	ready     chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Cache over store and starts the initial load in the
// background. When opts.Watch is set the provider's root is watched for
// pointer file changes; failing to watch is logged and leaves the cache
// working on manual refreshes only.
func New(store storage.Provider, resolver shortcut.Resolver, opts Options) *Cache {
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		scanner:  scanner.New(store, resolver, logger),
		maxItems: opts.MaxItems,
		logger:   logger,
		guard:    semaphore.NewWeighted(1),
		ready:    make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	c.debounce = NewDebouncer(opts.Debounce, c.debounced)

	if opts.Watch {
		w, err := newWatcher(store.Root())
		if err != nil {
			logger.Warn("recents: watch failed", slog.String("root", store.Root()), slog.String("error", err.Error()))
		} else {
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				watch(ctx, w, store.Root(), store.Pattern(), logger, c.debounce.Trigger)
			}()
		}
	}

	c.wg.Add(1)
	go c.initialLoad()
	return c
}

// Snapshot returns a copy of the current items.
func (c *Cache) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Clone()
}

// IsInitialLoadComplete reports whether the first load attempt finished.
func (c *Cache) IsInitialLoadComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// WaitForInitialLoad waits until the first load attempt finished. A zero
// timeout only checks, a negative timeout waits until ctx is done.
func (c *Cache) WaitForInitialLoad(ctx context.Context, timeout time.Duration) bool {
	select {
	case <-c.ready:
		return true
	default:
	}
	if timeout == 0 {
		return false
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-c.ready:
		return true
	case <-expired:
		return false
	case <-ctx.Done():
		return false
	}
}

// OnChange registers fn to receive every snapshot that replaced the previous
// one. fn runs on the refresh goroutine and must not block for long.
func (c *Cache) OnChange(fn func(models.Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.onChange = append(c.onChange, changeListener{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.onChange {
			if l.id == id {
				c.onChange = append(c.onChange[:i:i], c.onChange[i+1:]...)
				return
			}
		}
	}
}

// OnReady registers fn to run once when the initial load completes. If it
// already completed, fn runs before OnReady returns.
func (c *Cache) OnReady(fn func()) (unsubscribe func()) {
	c.mu.Lock()
	if c.loaded {
		closed := c.closed
		c.mu.Unlock()
		if !closed {
			fn()
		}
		return func() {}
	}
	c.nextID++
	id := c.nextID
	c.onReady = append(c.onReady, readyListener{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.onReady {
			if l.id == id {
				c.onReady = append(c.onReady[:i:i], c.onReady[i+1:]...)
				return
			}
		}
	}
}

// RequestRefresh schedules a debounced rescan.
func (c *Cache) RequestRefresh() {
	c.debounce.Trigger()
}

// Refresh rescans immediately unless a scan is already running, in which
// case the rescan is re-armed on the debouncer and ErrRefreshPending is
// returned. A failed scan keeps the previous snapshot.
func (c *Cache) Refresh(ctx context.Context) error {
	if !c.guard.TryAcquire(1) {
		metrics.RecordRefreshDeferred()
		c.debounce.Trigger()
		return ErrRefreshPending
	}
	defer c.guard.Release(1)
	return c.rescan(ctx)
}

// Stats returns a point-in-time view of the cache.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Initialized:   c.loaded,
		Count:         len(c.items),
		LastScan:      c.lastScan,
		LastError:     c.lastErr,
		ResolverCache: c.cacheLen,
	}
}

// Close stops the watcher and debouncer, cancels a running scan and waits
// for background work to finish. Listeners are not called after Close.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.onChange = nil
		c.onReady = nil
		c.mu.Unlock()

		c.debounce.Stop()
		c.cancel()
		c.wg.Wait()
		c.logger.Debug("recents: closed")
	})
}

func (c *Cache) debounced() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	if err := c.Refresh(c.ctx); err != nil && !errors.Is(err, ErrRefreshPending) {
		c.logger.Debug("recents: debounced refresh", slog.String("error", err.Error()))
	}
}

func (c *Cache) initialLoad() {
	defer c.wg.Done()
	defer c.markLoaded()

	if err := c.guard.Acquire(c.ctx, 1); err != nil {
		return
	}
	defer c.guard.Release(1)

	if err := c.rescan(c.ctx); err != nil {
		c.logger.Error("recents: initial load failed", slog.String("error", err.Error()))
		return
	}
	c.logger.Info("recents: initial load complete", slog.Int("count", len(c.Snapshot())))
}

func (c *Cache) markLoaded() {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return
	}
	c.loaded = true
	close(c.ready)
	listeners := c.onReady
	c.onReady = nil
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return
	}
	for _, l := range listeners {
		l.fn()
	}
}

// rescan must be called with the guard held.
func (c *Cache) rescan(ctx context.Context) error {
	start := time.Now()
	snap, err := c.scanner.Scan(ctx, c.maxItems)
	cacheLen := c.scanner.CacheLen()
	metrics.RecordScan(time.Since(start), err == nil)
	metrics.SetResolverCacheEntries(cacheLen)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperr.ErrClosed
	}
	c.lastScan = start
	c.cacheLen = cacheLen
	if err != nil {
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.logger.Warn("recents: scan failed", slog.String("root", c.scanner.Root()), slog.String("error", err.Error()))
		return fmt.Errorf("recents: scan: %w", err)
	}
	c.lastErr = ""

	if c.scanned && c.items.SameTargets(snap) {
		c.mu.Unlock()
		c.logger.Debug("recents: snapshot unchanged", slog.Int("count", len(snap)))
		return nil
	}
	c.scanned = true
	c.items = snap
	listeners := append([]changeListener(nil), c.onChange...)
	c.mu.Unlock()

	metrics.SetSnapshotItems(len(snap))
	metrics.RecordSnapshotChange()
	c.logger.Debug("recents: snapshot changed", slog.Int("count", len(snap)))
	for _, l := range listeners {
		l.fn(snap.Clone())
	}
	return nil
}
