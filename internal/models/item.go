// Package models defines the domain types for Recents.
package models

import (
	"strings"
	"time"
)

// PointerFile is one shortcut-like file found in the watched directory.
type PointerFile struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
}

// RecentItem is a validated, resolved entry of the recent-items list.
// Values are never mutated after the scanner builds them.
type RecentItem struct {
	SourcePath   string    `json:"source_path"`
	TargetPath   string    `json:"target_path"`
	DisplayName  string    `json:"display_name"`
	LastModified time.Time `json:"last_modified"`
}

// IsNetwork reports whether the item points at a UNC/network location.
func (i RecentItem) IsNetwork() bool {
	return IsNetworkPath(i.TargetPath)
}

// Snapshot is an ordered, deduplicated list of recent items, newest pointer file first.
type Snapshot []RecentItem

// Clone returns a copy whose backing array is not shared with s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// SameTargets reports whether s and other list the same target paths in the
// same order, comparing paths case-insensitively.
func (s Snapshot) SameTargets(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !strings.EqualFold(s[i].TargetPath, other[i].TargetPath) {
			return false
		}
	}
	return true
}

// IsNetworkPath reports whether p is a UNC-style path (\\server\share, \\?\UNC\...
// or //server/share). Such paths are never existence-checked.
func IsNetworkPath(p string) bool {
	return strings.HasPrefix(p, `\\`) || strings.HasPrefix(p, "//")
}

// TargetKey returns the dedup key for a target path: network paths are kept
// verbatim, local paths are lower-cased.
func TargetKey(p string) string {
	if IsNetworkPath(p) {
		return p
	}
	return strings.ToLower(p)
}

// ParentDir returns the directory containing p, understanding both '/' and '\'
// separators. It returns "" when p has no parent.
func ParentDir(p string) string {
	idx := strings.LastIndexAny(p, `/\`)
	switch {
	case idx < 0:
		return ""
	case idx == 0:
		if len(p) == 1 {
			return ""
		}
		return p[:1]
	case idx == len(p)-1:
		// "C:\" or "/" style roots have no parent of their own.
		if idx == 2 && p[1] == ':' {
			return ""
		}
	}
	dir := p[:idx]
	if strings.HasSuffix(dir, ":") {
		// Keep the separator for drive roots: C:\docs -> C:\
		return p[:idx+1]
	}
	return dir
}
