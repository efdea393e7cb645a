package scanner

import (
	"strings"

	"github.com/starford/recents/internal/models"
)

// collection accumulates accepted items in scan order and remembers every
// target key it has claimed, so a key stays taken even after a parent-folder
// collapse removes its item.
type collection struct {
	items   []models.RecentItem
	claimed map[string]struct{}
}

func newCollection(capacity int) *collection {
	return &collection{
		items:   make([]models.RecentItem, 0, capacity),
		claimed: make(map[string]struct{}, capacity),
	}
}

// Len returns the number of accepted items.
func (c *collection) Len() int { return len(c.items) }

// claim records the dedup key of target. It returns false when the key was
// already claimed earlier in the scan.
func (c *collection) claim(target string) bool {
	k := models.TargetKey(target)
	if _, ok := c.claimed[k]; ok {
		return false
	}
	c.claimed[k] = struct{}{}
	return true
}

// collapseParentOf removes the last accepted item when its target is the
// directory that contains target. Only the last item is considered.
func (c *collection) collapseParentOf(target string) (models.RecentItem, bool) {
	n := len(c.items)
	if n == 0 {
		return models.RecentItem{}, false
	}
	parent := models.ParentDir(target)
	if parent == "" || !strings.EqualFold(c.items[n-1].TargetPath, parent) {
		return models.RecentItem{}, false
	}
	removed := c.items[n-1]
	c.items = c.items[:n-1]
	return removed, true
}

// sameAsLast reports whether target equals the last accepted target.
func (c *collection) sameAsLast(target string) bool {
	n := len(c.items)
	return n > 0 && strings.EqualFold(c.items[n-1].TargetPath, target)
}

func (c *collection) add(item models.RecentItem) {
	c.items = append(c.items, item)
}

// snapshot returns the accepted items as an independent Snapshot.
func (c *collection) snapshot() models.Snapshot {
	return models.Snapshot(c.items).Clone()
}
