// Package runs tracks asynchronous scrape runs.
package runs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"scrapemap/internal/metrics"
	"scrapemap/internal/scrape"
	"scrapemap/internal/sitemap"
)

// Status represents the current state of a scrape run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run represents one scrape of a sitemap.
type Run struct {
	ID          string
	SitemapID   string
	Status      Status
	CreatedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Manager owns the in-memory run registry.
type Manager struct {
	mu     sync.RWMutex
	runs   map[string]*Run
	logger *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{runs: make(map[string]*Run), logger: logger}
}

// NewRun registers a pending run for the sitemap with a uuidv7 ID.
func (m *Manager) NewRun(sitemapID string) *Run {
	run := &Run{
		ID:        uuidMustV7().String(),
		SitemapID: sitemapID,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()
	return run
}

// Get returns a snapshot of the run with the given id.
func (m *Manager) Get(id string) (Run, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// Start launches the run in the background. The store's records for the
// sitemap are cleared first so a rescrape starts from a clean slate.
func (m *Manager) Start(ctx context.Context, run *Run, sm *sitemap.Sitemap, store RunStore, fetcher scrape.Fetcher, opts scrape.Options) {
	go func() {
		m.setStatus(run, StatusRunning, "")

		if err := store.ResetRecords(ctx, sm.ID); err != nil {
			m.finish(run, StatusFailed, err.Error())
			return
		}

		scraper := scrape.NewScraper(scrape.NewQueue(), sm, store, fetcher, m.logger, opts)
		if err := scraper.Run(ctx); err != nil {
			m.finish(run, StatusFailed, err.Error())
			return
		}
		m.finish(run, StatusCompleted, "")
	}()
}

// RunStore is the persistence surface a run needs.
type RunStore interface {
	scrape.RecordStore
	ResetRecords(ctx context.Context, sitemapID string) error
}

func (m *Manager) setStatus(run *Run, status Status, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.Status = status
	run.Error = errMsg
}

func (m *Manager) finish(run *Run, status Status, errMsg string) {
	m.mu.Lock()
	run.Status = status
	run.Error = errMsg
	now := time.Now().UTC()
	run.CompletedAt = &now
	m.mu.Unlock()

	metrics.RecordRunFinished(string(status))
	if status == StatusFailed {
		m.logger.Warn("scrape run failed", "run_id", run.ID, "sitemap", run.SitemapID, "error", errMsg)
	} else {
		m.logger.Info("scrape run finished", "run_id", run.ID, "sitemap", run.SitemapID)
	}
}

// uuidMustV7 generates a uuidv7 if supported, otherwise falls back to v4.
func uuidMustV7() uuid.UUID {
	if id, err := uuid.NewV7(); err == nil {
		return id
	}
	return uuid.New() // v4 fallback
}
