package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/starford/recents/internal/models"
)

// DefaultPattern matches Windows shell shortcuts.
const DefaultPattern = "*.lnk"

// FS implements Provider backed by the local file system.
type FS struct {
	root    string // absolute path to the pointer directory
	pattern string
}

// NewFS creates a new FS provider for the pointer files in root matching
// pattern. The directory does not have to exist yet; List reports the error.
func NewFS(root, pattern string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("storage: bad pattern %q: %w", pattern, err)
	}
	return &FS{root: abs, pattern: pattern}, nil
}

// Root returns the absolute pointer directory.
func (f *FS) Root() string { return f.root }

// Pattern returns the pointer file name pattern.
func (f *FS) Pattern() string { return f.pattern }

// Matches reports whether name (a base name) is a pointer file name.
func (f *FS) Matches(name string) bool {
	ok, _ := filepath.Match(f.pattern, name)
	return ok
}

// List reads root non-recursively and returns every pointer file ordered by
// descending modification time. Entries that vanish between the directory
// read and the stat are skipped.
func (f *FS) List() ([]models.PointerFile, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", f.root, err)
	}
	out := make([]models.PointerFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !f.Matches(e.Name()) {
			continue
		}
		// Lstat so that symlink pointers report their own mtime, not the target's.
		info, err := os.Lstat(filepath.Join(f.root, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, models.PointerFile{
			Path:    filepath.Join(f.root, e.Name()),
			ModTime: info.ModTime().UTC(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ModTime.After(out[j].ModTime)
	})
	return out, nil
}

// Exists reports whether a file or directory exists at path.
func (f *FS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path is an existing directory.
func (f *FS) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
