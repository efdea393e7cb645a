package recentservice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/starford/recents/internal/models"
	"github.com/starford/recents/internal/query"
	"github.com/starford/recents/internal/recents"
	"github.com/starford/recents/internal/testutil"
)

func setup(t *testing.T) (*testutil.MemProvider, *recents.Cache, *Service) {
	t.Helper()
	mem := testutil.NewMemProvider()
	mem.AddExisting(`C:\a.txt`, `C:\b.txt`, `C:\report.doc`)
	mem.Set(
		testutil.Pointer{Name: "a.lnk", Target: `C:\a.txt`},
		testutil.Pointer{Name: "r.lnk", Target: `C:\report.doc`, Title: "Report"},
	)
	cache := recents.New(mem, mem, recents.Options{Debounce: 10 * time.Millisecond, Logger: testutil.Logger()})
	t.Cleanup(cache.Close)
	if !cache.WaitForInitialLoad(context.Background(), 5*time.Second) {
		t.Fatal("initial load did not complete")
	}
	svc := New(cache, query.Options{PageSize: 1}, testutil.Logger())
	t.Cleanup(svc.Close)
	return mem, cache, svc
}

func TestSearchAndPage(t *testing.T) {
	_, _, svc := setup(t)
	ctx := context.Background()

	tok := svc.Search("")
	page, err := svc.Next(ctx, tok)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].Target != `C:\a.txt` || !page.HasMore {
		t.Fatalf("first page = %+v", page)
	}
	page, _ = svc.Next(ctx, tok)
	if len(page.Items) != 1 || page.Items[0].Title != "Report" || page.HasMore {
		t.Fatalf("second page = %+v", page)
	}

	stale, _ := svc.Next(ctx, query.NewToken())
	if len(stale.Items) != 0 || stale.HasMore {
		t.Fatalf("unknown token page = %+v", stale)
	}
}

func TestBlankQueryFollowsChanges(t *testing.T) {
	mem, cache, svc := setup(t)
	tok := svc.Search("  ")

	mem.Set(
		testutil.Pointer{Name: "b.lnk", Target: `C:\b.txt`},
		testutil.Pointer{Name: "a.lnk", Target: `C:\a.txt`},
	)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	st := svc.Status()
	if st.Token == tok {
		t.Fatal("blank query was not restarted with a new token")
	}
	if st.Stale {
		t.Fatal("blank query should not be flagged stale")
	}
	page, _ := svc.Next(context.Background(), st.Token)
	if len(page.Items) != 1 || page.Items[0].Target != `C:\b.txt` {
		t.Fatalf("page = %+v", page)
	}
}

func TestNonBlankQueryIsFlaggedStale(t *testing.T) {
	mem, cache, svc := setup(t)
	tok := svc.Search("report")

	mem.Set(testutil.Pointer{Name: "b.lnk", Target: `C:\b.txt`})
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	st := svc.Status()
	if !st.Stale || st.Token != tok || st.Query != "report" {
		t.Fatalf("status = %+v", st)
	}
	// Results keep reflecting the snapshot filtered at search time.
	page, _ := svc.Next(context.Background(), tok)
	if len(page.Items) != 1 || page.Items[0].Title != "Report" {
		t.Fatalf("page = %+v", page)
	}

	svc.Search("report")
	if svc.Status().Stale {
		t.Fatal("search should clear the stale flag")
	}
}

func TestStatus(t *testing.T) {
	_, _, svc := setup(t)
	st := svc.Status()
	if !st.Initialized || st.Count != 2 || st.Fingerprint == "" {
		t.Fatalf("status = %+v", st)
	}
	_, fp := svc.Recents()
	if fp != st.Fingerprint {
		t.Fatal("fingerprint mismatch")
	}
}

func TestRefreshIsDebounced(t *testing.T) {
	mem, _, svc := setup(t)
	before := mem.ListCalls()
	svc.Refresh()
	svc.Refresh()
	testutil.Eventually(t, 2*time.Second, 5*time.Millisecond, func() bool {
		return mem.ListCalls() == before+1
	}, "refresh did not rescan")
	if !svc.WaitReady(context.Background(), 0) {
		t.Fatal("service should report ready")
	}
}

// gatedRecents is a Recents whose Snapshot blocks while a gate is armed.
type gatedRecents struct {
	mu       sync.Mutex
	snap     models.Snapshot
	onChange func(models.Snapshot)
	gate     chan struct{}
	entered  chan struct{}
}

func (g *gatedRecents) Snapshot() models.Snapshot {
	g.mu.Lock()
	gate, entered := g.gate, g.entered
	g.gate, g.entered = nil, nil
	snap := g.snap.Clone()
	g.mu.Unlock()
	if gate != nil {
		close(entered)
		<-gate
	}
	return snap
}

// arm makes the next Snapshot call wait for release.
func (g *gatedRecents) arm() (entered <-chan struct{}, release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gate = make(chan struct{})
	g.entered = make(chan struct{})
	gate := g.gate
	return g.entered, func() { close(gate) }
}

func (g *gatedRecents) OnChange(fn func(models.Snapshot)) func() {
	g.onChange = fn
	return func() {}
}

func (g *gatedRecents) WaitForInitialLoad(context.Context, time.Duration) bool { return true }
func (g *gatedRecents) RequestRefresh()                                       {}
func (g *gatedRecents) Stats() recents.Stats                                  { return recents.Stats{} }

func TestSearchDuringBlankRestartKeepsUserQuery(t *testing.T) {
	src := &gatedRecents{snap: models.Snapshot{
		{SourcePath: "a.lnk", TargetPath: `C:\a.txt`, DisplayName: "a.txt"},
		{SourcePath: "r.lnk", TargetPath: `C:\report.doc`, DisplayName: "Report"},
	}}
	svc := New(src, query.Options{PageSize: 10}, testutil.Logger())
	t.Cleanup(svc.Close)
	svc.Search("")

	entered, release := src.arm()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		src.onChange(src.snap)
	}()
	// The blank restart is now filtering and holds the engine.
	<-entered

	var tok query.Token
	wg.Add(1)
	go func() {
		defer wg.Done()
		tok = svc.Search("report")
	}()
	time.Sleep(20 * time.Millisecond)
	release()
	wg.Wait()

	st := svc.Status()
	if st.Query != "report" || st.Token != tok {
		t.Fatalf("status = %+v, want the user's search", st)
	}
	page, err := svc.Next(context.Background(), tok)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].Title != "Report" {
		t.Fatalf("page = %+v", page)
	}
}
