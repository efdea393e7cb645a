// Package shortcut resolves pointer files into the location they reference.
package shortcut

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Resolver kinds accepted in configuration.
const (
	KindSymlink  = "symlink"
	KindManifest = "manifest"
)

// Target is what a pointer file resolves to.
type Target struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Arguments   string `json:"arguments,omitempty"`
	IconRef     string `json:"icon_ref,omitempty"`
}

// Resolver turns a pointer file into its Target. Implementations may block on
// I/O and must be safe to call from a background goroutine. A pointer that
// exists but references nothing usable returns an error wrapping
// apperr.ErrNotFound.
type Resolver interface {
	Resolve(ctx context.Context, path string) (Target, error)
}

// New returns the resolver registered under kind.
func New(kind string) (Resolver, error) {
	switch kind {
	case KindSymlink, "":
		return SymlinkResolver{}, nil
	case KindManifest:
		return ManifestResolver{}, nil
	default:
		return nil, fmt.Errorf("shortcut: unknown resolver %q", kind)
	}
}

// displayNameFor derives a display name from the pointer file itself, the
// way the shell shows "report.txt.lnk" as "report.txt".
func displayNameFor(pointerPath string) string {
	base := filepath.Base(pointerPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
