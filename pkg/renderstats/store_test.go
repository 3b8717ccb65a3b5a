package renderstats

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestStore creates a fresh SQLite database and Store for a single test.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "stats.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}
	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStore_RecordAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	first := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	last := first.Add(time.Hour)

	renders := []Render{
		{Template: "a.tmpl.html", Bytes: 100, Duration: 2 * time.Millisecond, At: first},
		{Template: "a.tmpl.html", Bytes: 50, Duration: 4 * time.Millisecond, At: last, Err: errors.New("boom")},
	}
	for _, r := range renders {
		if err := s.Record(ctx, r); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}

	stats, err := s.Get(ctx, "a.tmpl.html")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if stats.Renders != 2 || stats.Failures != 1 || stats.BytesWritten != 150 {
		t.Errorf("unexpected counters: %+v", stats)
	}
	if stats.AvgDuration != 3*time.Millisecond {
		t.Errorf("AvgDuration = %v, want 3ms", stats.AvgDuration)
	}
	if !stats.FirstSeen.Equal(first) || !stats.LastSeen.Equal(last) {
		t.Errorf("first/last seen = %v/%v, want %v/%v", stats.FirstSeen, stats.LastSeen, first, last)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.Get(context.Background(), "never.tmpl.html"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_RecordRejectsEmptyName(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Record(context.Background(), Render{}); err == nil {
		t.Error("expected an error for a render without a template name")
	}
}

func TestStore_TopAndSummary(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	counts := map[string]int{"a.tmpl.html": 1, "b.tmpl.html": 3, "c.tmpl.html": 2}
	for name, n := range counts {
		for i := 0; i < n; i++ {
			if err := s.Record(ctx, Render{Template: name, Bytes: 10}); err != nil {
				t.Fatalf("Record() failed: %v", err)
			}
		}
	}

	top, err := s.Top(ctx, 2)
	if err != nil {
		t.Fatalf("Top() failed: %v", err)
	}
	if len(top) != 2 || top[0].Template != "b.tmpl.html" || top[1].Template != "c.tmpl.html" {
		t.Errorf("unexpected top templates: %+v", top)
	}

	sum, err := s.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	want := Summary{Templates: 3, TotalRenders: 6, TotalFailures: 0, TotalBytes: 60}
	if sum != want {
		t.Errorf("Summary() = %+v, want %+v", sum, want)
	}

	if err = s.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if sum, _ = s.Summary(ctx); sum != (Summary{}) {
		t.Errorf("Summary() after Reset = %+v, want zero", sum)
	}
	if top, _ = s.Top(ctx, 10); len(top) != 0 {
		t.Errorf("Top() after Reset = %+v, want empty", top)
	}
}

func TestStore_ConcurrentRecord(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	const workers, perWorker = 4, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if err := s.Record(ctx, Render{Template: "hot.tmpl.html", Bytes: 1}); err != nil {
					t.Errorf("Record() failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	stats, err := s.Get(ctx, "hot.tmpl.html")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if stats.Renders != workers*perWorker {
		t.Errorf("Renders = %d, want %d", stats.Renders, workers*perWorker)
	}
}
