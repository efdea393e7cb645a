package shortcut

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/recents/internal/apperr"
)

// SymlinkResolver treats pointer files as symbolic links.
type SymlinkResolver struct{}

// Resolve reads the link destination of path. Relative destinations are
// interpreted against the directory holding the link.
func (SymlinkResolver) Resolve(ctx context.Context, path string) (Target, error) {
	if err := ctx.Err(); err != nil {
		return Target{}, err
	}
	dest, err := os.Readlink(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Target{}, fmt.Errorf("shortcut: %s: %w", path, apperr.ErrNotFound)
		}
		return Target{}, fmt.Errorf("shortcut: readlink %s: %w", path, err)
	}
	if dest == "" {
		return Target{}, fmt.Errorf("shortcut: %s has empty target: %w", path, apperr.ErrNotFound)
	}
	if !filepath.IsAbs(dest) && !isWindowsAbs(dest) {
		dest = filepath.Join(filepath.Dir(path), dest)
	}
	return Target{
		Path:        dest,
		DisplayName: displayNameFor(path),
	}, nil
}

// isWindowsAbs catches drive-letter and UNC destinations that filepath.IsAbs
// does not recognise on non-Windows hosts.
func isWindowsAbs(p string) bool {
	if len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') {
		return true
	}
	return len(p) >= 2 && p[0] == '\\' && p[1] == '\\'
}
