package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/recents/internal/models"
	"github.com/starford/recents/internal/shortcut"
	"github.com/starford/recents/internal/storage"
	"github.com/starford/recents/internal/testutil"
)

func memScanner(t *testing.T) (*testutil.MemProvider, *Scanner) {
	t.Helper()
	mem := testutil.NewMemProvider()
	return mem, New(mem, mem, testutil.Logger())
}

func targets(s models.Snapshot) []string {
	out := make([]string, len(s))
	for i, it := range s {
		out[i] = it.TargetPath
	}
	return out
}

func assertTargets(t *testing.T, got models.Snapshot, want ...string) {
	t.Helper()
	g := targets(got)
	if len(g) != len(want) {
		t.Fatalf("targets = %q, want %q", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("targets = %q, want %q", g, want)
		}
	}
}

func TestScan_OrderAndDisplayName(t *testing.T) {
	mem, s := memScanner(t)
	mem.AddExisting(`C:\docs\b.txt`, `C:\docs\a.txt`)
	mem.Set(
		testutil.Pointer{Name: "b.lnk", Target: `C:\docs\b.txt`, Title: "Bee"},
		testutil.Pointer{Name: "a.lnk", Target: `C:\docs\a.txt`},
	)

	snap, err := s.Scan(context.Background(), 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	assertTargets(t, snap, `C:\docs\b.txt`, `C:\docs\a.txt`)
	if snap[0].DisplayName != "Bee" || snap[0].SourcePath != "b.lnk" {
		t.Errorf("first item = %+v", snap[0])
	}
	if !snap[0].LastModified.After(snap[1].LastModified) {
		t.Errorf("items not newest-first by pointer mtime")
	}
}

func TestScan_Dedup(t *testing.T) {
	mem, s := memScanner(t)
	mem.AddExisting(`C:\Docs\A.txt`, `C:\other.txt`)
	mem.Set(
		testutil.Pointer{Name: "1.lnk", Target: `C:\Docs\A.txt`},
		testutil.Pointer{Name: "2.lnk", Target: `\\srv\share\x.doc`},
		testutil.Pointer{Name: "3.lnk", Target: `C:\other.txt`},
		testutil.Pointer{Name: "4.lnk", Target: `c:\docs\a.TXT`},
		testutil.Pointer{Name: "5.lnk", Target: `\\srv\share\x.doc`},
		testutil.Pointer{Name: "6.lnk", Target: `\\SRV\share\x.doc`},
	)

	snap, err := s.Scan(context.Background(), 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// Network keys are case-sensitive, local keys are not.
	assertTargets(t, snap, `C:\Docs\A.txt`, `\\srv\share\x.doc`, `C:\other.txt`, `\\SRV\share\x.doc`)

	seen := make(map[string]bool)
	for _, it := range snap {
		k := models.TargetKey(it.TargetPath)
		if seen[k] {
			t.Errorf("duplicate key %q", k)
		}
		seen[k] = true
	}
}

func TestScan_ParentCollapse(t *testing.T) {
	mem, s := memScanner(t)
	mem.AddDir(`C:\FolderA`)
	mem.AddExisting(`C:\FolderA\file.txt`)
	mem.Set(
		testutil.Pointer{Name: "folder.lnk", Target: `C:\FolderA`},
		testutil.Pointer{Name: "file.lnk", Target: `C:\FolderA\file.txt`},
	)

	snap, err := s.Scan(context.Background(), 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	assertTargets(t, snap, `C:\FolderA\file.txt`)
}

func TestScan_ParentCollapseOnlyLooksAtLastItem(t *testing.T) {
	mem, s := memScanner(t)
	mem.AddDir(`C:\FolderA`)
	mem.AddExisting(`C:\unrelated.txt`, `C:\FolderA\file.txt`)
	mem.Set(
		testutil.Pointer{Name: "folder.lnk", Target: `C:\FolderA`},
		testutil.Pointer{Name: "other.lnk", Target: `C:\unrelated.txt`},
		testutil.Pointer{Name: "file.lnk", Target: `C:\FolderA\file.txt`},
	)

	snap, err := s.Scan(context.Background(), 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	assertTargets(t, snap, `C:\FolderA`, `C:\unrelated.txt`, `C:\FolderA\file.txt`)
}

func TestScan_CollapsedFolderStaysClaimed(t *testing.T) {
	mem, s := memScanner(t)
	mem.AddDir(`C:\FolderA`)
	mem.AddExisting(`C:\FolderA\file.txt`)
	mem.Set(
		testutil.Pointer{Name: "folder.lnk", Target: `C:\FolderA`},
		testutil.Pointer{Name: "file.lnk", Target: `C:\FolderA\file.txt`},
		testutil.Pointer{Name: "folder-old.lnk", Target: `C:\FolderA`},
	)

	snap, err := s.Scan(context.Background(), 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	assertTargets(t, snap, `C:\FolderA\file.txt`)
}

func TestScan_CollapseFreesASlot(t *testing.T) {
	mem, s := memScanner(t)
	mem.AddDir(`C:\FolderA`)
	mem.AddExisting(`C:\FolderA\file.txt`, `C:\b.txt`)
	mem.Set(
		testutil.Pointer{Name: "folder.lnk", Target: `C:\FolderA`},
		testutil.Pointer{Name: "file.lnk", Target: `C:\FolderA\file.txt`},
		testutil.Pointer{Name: "b.lnk", Target: `C:\b.txt`},
	)

	snap, err := s.Scan(context.Background(), 2)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	assertTargets(t, snap, `C:\FolderA\file.txt`, `C:\b.txt`)
}

func TestScan_SkipsStaleLocalKeepsNetwork(t *testing.T) {
	mem, s := memScanner(t)
	mem.AddExisting(`C:\here.txt`)
	mem.Set(
		testutil.Pointer{Name: "gone.lnk", Target: `C:\gone.txt`},
		testutil.Pointer{Name: "here.lnk", Target: `C:\here.txt`},
		testutil.Pointer{Name: "unc.lnk", Target: `\\nas\public\movie.mkv`},
		testutil.Pointer{Name: "broken.lnk"},
	)

	snap, err := s.Scan(context.Background(), 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	assertTargets(t, snap, `C:\here.txt`, `\\nas\public\movie.mkv`)
	if !snap[1].IsNetwork() {
		t.Error("UNC item should report IsNetwork")
	}
}

func TestScan_Bound(t *testing.T) {
	mem, s := memScanner(t)
	var ptrs []testutil.Pointer
	for i := 0; i < 50; i++ {
		target := fmt.Sprintf(`C:\f\%02d.txt`, i)
		mem.AddExisting(target)
		ptrs = append(ptrs, testutil.Pointer{Name: fmt.Sprintf("%02d.lnk", i), Target: target})
	}
	mem.Set(ptrs...)

	for _, limit := range []int{0, 1, 7, 50, 80} {
		snap, err := s.Scan(context.Background(), limit)
		if err != nil {
			t.Fatalf("Scan(%d): %v", limit, err)
		}
		want := min(limit, 50)
		if len(snap) != want {
			t.Errorf("Scan(%d) len = %d, want %d", limit, len(snap), want)
		}
	}
}

func TestScan_ListFailure(t *testing.T) {
	mem, s := memScanner(t)
	mem.FailList(errors.New("access denied"))
	if _, err := s.Scan(context.Background(), 10); err == nil {
		t.Fatal("expected listing error")
	}
}

func TestScan_Cancelled(t *testing.T) {
	mem, s := memScanner(t)
	mem.AddExisting(`C:\a.txt`)
	mem.Set(testutil.Pointer{Name: "a.lnk", Target: `C:\a.txt`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Scan(ctx, 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestScan_ReusesResolutionsAcrossScans(t *testing.T) {
	mem, s := memScanner(t)
	mem.AddExisting(`C:\a.txt`)
	mem.Set(testutil.Pointer{Name: "a.lnk", Target: `C:\a.txt`})

	for i := 0; i < 3; i++ {
		if _, err := s.Scan(context.Background(), 10); err != nil {
			t.Fatalf("Scan: %v", err)
		}
	}
	if n := mem.ResolveCalls("a.lnk"); n != 1 {
		t.Errorf("resolver calls = %d, want 1", n)
	}
	if s.CacheLen() != 1 {
		t.Errorf("cache len = %d, want 1", s.CacheLen())
	}
	if s.hits != 2 || s.misses != 1 {
		t.Errorf("reported lookups = %d hits / %d misses, want 2/1", s.hits, s.misses)
	}

	mem.Set() // pointer deleted
	if _, err := s.Scan(context.Background(), 10); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if s.CacheLen() != 0 {
		t.Errorf("cache len after delete = %d, want 0", s.CacheLen())
	}
}

func TestScan_RealDirectoryWithManifests(t *testing.T) {
	recent := t.TempDir()
	docs := t.TempDir()
	folder := filepath.Join(docs, "project")
	file := filepath.Join(folder, "plan.txt")
	_ = os.MkdirAll(folder, 0o755)
	_ = os.WriteFile(file, []byte("plan"), 0o644)

	now := time.Now()
	testutil.WriteManifest(t, recent, "project.lnk", folder, now.Add(-2*time.Minute))
	testutil.WriteManifest(t, recent, "plan.txt.lnk", file, now.Add(-time.Minute))
	testutil.WriteManifest(t, recent, "missing.lnk", filepath.Join(docs, "nope.txt"), now)

	store, err := storage.NewFS(recent, "*.lnk")
	if err != nil {
		t.Fatal(err)
	}
	s := New(store, shortcut.ManifestResolver{}, testutil.Logger())
	snap, err := s.Scan(context.Background(), 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// Newest first: plan.txt precedes project, so no collapse happens.
	assertTargets(t, snap, file, folder)
	if snap[0].DisplayName != "plan.txt" {
		t.Errorf("display name = %q", snap[0].DisplayName)
	}
}
