// Package testutil provides shared test helpers: in-memory pointer
// directories, canned resolvers and polling assertions.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/recents/internal/apperr"
	"github.com/starford/recents/internal/models"
	"github.com/starford/recents/internal/shortcut"
)

// Logger returns a logger that discards everything below error level.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

// Pointer describes one pointer file of a MemProvider.
type Pointer struct {
	Name   string // pointer file path
	Target string // resolved target; "" resolves to nothing
	Title  string // display name; defaults to the target's base name
}

// MemProvider is an in-memory storage.Provider paired with a canned resolver.
// Pointers are listed in the order they were added (newest first); every
// Set bumps their modification times so resolver caches notice the change.
type MemProvider struct {
	mu       sync.Mutex
	pointers []Pointer
	existing map[string]bool
	dirs     map[string]bool
	listErr  error
	gen      int
	calls    map[string]int
	lists    int
	block    chan struct{}
}

// NewMemProvider creates an empty provider.
func NewMemProvider() *MemProvider {
	return &MemProvider{
		existing: make(map[string]bool),
		dirs:     make(map[string]bool),
		calls:    make(map[string]int),
	}
}

// Set replaces the pointer list, newest first.
func (m *MemProvider) Set(pointers ...Pointer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointers = append([]Pointer(nil), pointers...)
	m.gen++
}

// AddExisting marks local paths as present on disk.
func (m *MemProvider) AddExisting(paths ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		m.existing[strings.ToLower(p)] = true
	}
}

// AddDir marks local paths as existing directories.
func (m *MemProvider) AddDir(paths ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		m.existing[strings.ToLower(p)] = true
		m.dirs[strings.ToLower(p)] = true
	}
}

// FailList makes List return err until called again with nil.
func (m *MemProvider) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// BlockList makes List wait until the returned release func is called.
func (m *MemProvider) BlockList() (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.block = ch
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.block = nil
			m.mu.Unlock()
			close(ch)
		})
	}
}

// ListCalls returns how many times List was called.
func (m *MemProvider) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

// ResolveCalls returns how many times the resolver was asked for name.
func (m *MemProvider) ResolveCalls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// Root implements storage.Provider.
func (m *MemProvider) Root() string { return "mem" }

// Pattern implements storage.Provider.
func (m *MemProvider) Pattern() string { return "*" }

// List implements storage.Provider.
func (m *MemProvider) List() ([]models.PointerFile, error) {
	m.mu.Lock()
	m.lists++
	block := m.block
	m.mu.Unlock()
	if block != nil {
		<-block
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.gen) * time.Hour)
	out := make([]models.PointerFile, len(m.pointers))
	for i, p := range m.pointers {
		out[i] = models.PointerFile{Path: p.Name, ModTime: base.Add(-time.Duration(i) * time.Second)}
	}
	return out, nil
}

// Exists implements storage.Provider.
func (m *MemProvider) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existing[strings.ToLower(path)]
}

// IsDir implements storage.Provider.
func (m *MemProvider) IsDir(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirs[strings.ToLower(path)]
}

// Resolve implements shortcut.Resolver over the current pointer list.
func (m *MemProvider) Resolve(_ context.Context, path string) (shortcut.Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[path]++
	for _, p := range m.pointers {
		if p.Name != path {
			continue
		}
		if p.Target == "" {
			return shortcut.Target{}, fmt.Errorf("testutil: %s: %w", path, apperr.ErrNotFound)
		}
		title := p.Title
		if title == "" {
			title = baseName(p.Target)
		}
		return shortcut.Target{Path: p.Target, DisplayName: title}, nil
	}
	return shortcut.Target{}, errors.New("testutil: unknown pointer " + path)
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// WriteManifest writes a manifest pointer file named name into dir and sets
// its modification time.
func WriteManifest(t *testing.T, dir, name, target string, mod time.Time) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("target: "+target+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(p, mod, mod); err != nil {
		t.Fatal(err)
	}
	return p
}
