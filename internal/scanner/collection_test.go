package scanner

import (
	"testing"

	"github.com/starford/recents/internal/models"
)

func TestCollection_ClaimIsCaseAware(t *testing.T) {
	c := newCollection(4)
	if !c.claim(`C:\A.txt`) {
		t.Fatal("first claim should succeed")
	}
	if c.claim(`c:\a.TXT`) {
		t.Error("local keys are case-insensitive")
	}
	if !c.claim(`\\srv\X`) || !c.claim(`\\srv\x`) {
		t.Error("network keys are case-sensitive")
	}
}

func TestCollection_CollapseAndSameAsLast(t *testing.T) {
	c := newCollection(4)
	c.add(models.RecentItem{TargetPath: "/home/me/docs"})

	if _, ok := c.collapseParentOf("/home/me/other/x.txt"); ok {
		t.Error("unrelated target must not collapse")
	}
	removed, ok := c.collapseParentOf("/home/me/DOCS/x.txt")
	if !ok || removed.TargetPath != "/home/me/docs" {
		t.Fatalf("collapse = %v, %+v", ok, removed)
	}
	if c.Len() != 0 {
		t.Errorf("len = %d, want 0", c.Len())
	}

	c.add(models.RecentItem{TargetPath: "/home/me/docs/x.txt"})
	if !c.sameAsLast("/HOME/me/docs/x.txt") {
		t.Error("sameAsLast should compare case-insensitively")
	}
	snap := c.snapshot()
	c.add(models.RecentItem{TargetPath: "/y"})
	if len(snap) != 1 {
		t.Error("snapshot must not alias the collection")
	}
}
