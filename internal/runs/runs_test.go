package runs

import (
	"context"
	"errors"
	"testing"
	"time"

	"scrapemap/internal/scrape"
	"scrapemap/internal/selector"
	"scrapemap/internal/sitemap"
)

type fakeStore struct {
	records  []selector.Record
	resets   int
	resetErr error
}

func (s *fakeStore) SaveRecord(ctx context.Context, sitemapID string, rec selector.Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeStore) ResetRecords(ctx context.Context, sitemapID string) error {
	s.resets++
	return s.resetErr
}

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	body, ok := f.pages[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(body), nil
}

func waitForRun(t *testing.T, m *Manager, id string) Run {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, ok := m.Get(id)
		if !ok {
			t.Fatalf("run %s disappeared", id)
		}
		if run.Status == StatusCompleted || run.Status == StatusFailed {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s did not finish", id)
	return Run{}
}

func newRunSitemap(t *testing.T) *sitemap.Sitemap {
	t.Helper()
	m := sitemap.New("test")
	m.StartURLs = []string{"http://site/"}
	a := selector.New(selector.KindText, "a")
	a.CSS = "h1"
	if err := m.Append(a); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	return m
}

func TestManagerRunCompletes(t *testing.T) {
	mgr := NewManager(nil)
	sm := newRunSitemap(t)
	store := &fakeStore{}
	fetcher := &fakeFetcher{pages: map[string]string{"http://site/": `<h1>hi</h1>`}}

	run := mgr.NewRun(sm.ID)
	if run.Status != StatusPending {
		t.Fatalf("expected pending run, got %s", run.Status)
	}

	mgr.Start(context.Background(), run, sm, store, fetcher, scrape.Options{RequestInterval: time.Millisecond})
	final := waitForRun(t, mgr, run.ID)

	if final.Status != StatusCompleted {
		t.Fatalf("expected completed run, got %s (%s)", final.Status, final.Error)
	}
	if final.CompletedAt == nil {
		t.Fatalf("expected completion timestamp")
	}
	if store.resets != 1 {
		t.Fatalf("expected records reset before the run, got %d resets", store.resets)
	}
	if len(store.records) != 1 || store.records[0]["a"] != "hi" {
		t.Fatalf("unexpected records %v", store.records)
	}
}

func TestManagerRunFailsOnResetError(t *testing.T) {
	mgr := NewManager(nil)
	sm := newRunSitemap(t)
	store := &fakeStore{resetErr: errors.New("db down")}

	run := mgr.NewRun(sm.ID)
	mgr.Start(context.Background(), run, sm, store, &fakeFetcher{}, scrape.Options{RequestInterval: time.Millisecond})
	final := waitForRun(t, mgr, run.ID)

	if final.Status != StatusFailed || final.Error != "db down" {
		t.Fatalf("expected failed run with reset error, got %s (%s)", final.Status, final.Error)
	}
	if len(store.records) != 0 {
		t.Fatalf("expected no records saved, got %v", store.records)
	}
}

func TestManagerGetUnknownRun(t *testing.T) {
	mgr := NewManager(nil)
	if _, ok := mgr.Get("nope"); ok {
		t.Fatalf("expected unknown run to be absent")
	}
}
