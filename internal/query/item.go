package query

import (
	"time"

	"github.com/starford/recents/internal/models"
)

// Kind classifies what an item points at.
type Kind string

const (
	KindFile    Kind = "file"
	KindFolder  Kind = "folder"
	KindNetwork Kind = "network"
)

// Item is the presentation form of a RecentItem.
type Item struct {
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle"`
	Target       string    `json:"target"`
	Source       string    `json:"source"`
	Kind         Kind      `json:"kind"`
	LastModified time.Time `json:"last_modified"`
}

// NewItem converts it. isDir may touch the disk and is never called for
// network targets; a nil isDir classifies every local target as a file.
func NewItem(it models.RecentItem, isDir func(string) bool) Item {
	kind := KindFile
	switch {
	case it.IsNetwork():
		kind = KindNetwork
	case isDir != nil && isDir(it.TargetPath):
		kind = KindFolder
	}
	return Item{
		Title:        it.DisplayName,
		Subtitle:     it.TargetPath,
		Target:       it.TargetPath,
		Source:       it.SourcePath,
		Kind:         kind,
		LastModified: it.LastModified,
	}
}
