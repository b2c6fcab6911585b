package scrape

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"scrapemap/internal/htmlq"
	"scrapemap/internal/metrics"
	"scrapemap/internal/selector"
	"scrapemap/internal/sitemap"
)

// Fetcher retrieves raw page bytes for a URL.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// RecordStore persists assembled records for a sitemap.
type RecordStore interface {
	SaveRecord(ctx context.Context, sitemapID string, rec selector.Record) error
}

// Scraper drains a job queue serially: it seeds jobs from the sitemap's
// start URLs, executes each job against the fetched document, and routes
// the produced records either to the store or to new follow jobs.
type Scraper struct {
	queue   *Queue
	sitemap *sitemap.Sitemap
	store   RecordStore
	fetcher Fetcher
	logger  *slog.Logger

	requestInterval time.Duration
	pageloadDelay   time.Duration
	lastFetch       time.Time
}

// Options tune the scrape loop.
type Options struct {
	// RequestInterval is the minimum time between fetches. Zero or
	// negative falls back to the 2s default.
	RequestInterval time.Duration
	// PageloadDelay is slept after each fetch before extraction.
	PageloadDelay time.Duration
}

// NewScraper wires a scraper for one run over the given sitemap.
func NewScraper(queue *Queue, m *sitemap.Sitemap, store RecordStore, fetcher Fetcher, logger *slog.Logger, opts Options) *Scraper {
	interval := opts.RequestInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		queue:           queue,
		sitemap:         m,
		store:           store,
		fetcher:         fetcher,
		logger:          logger,
		requestInterval: interval,
		pageloadDelay:   opts.PageloadDelay,
	}
}

// Run seeds the queue and drains it. Per-job failures are logged and do not
// terminate the run; the only fatal condition is context cancellation.
func (s *Scraper) Run(ctx context.Context) error {
	s.SeedJobs()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job := s.queue.Next()
		if job == nil {
			return nil
		}
		s.runJob(ctx, job)
	}
}

// SeedJobs expands the sitemap's start URLs into root jobs.
func (s *Scraper) SeedJobs() {
	for _, u := range s.sitemap.ExpandStartURLs() {
		if s.queue.Add(NewJob(u, selector.RootID, nil, nil)) {
			metrics.RecordJobQueued()
		}
	}
}

func (s *Scraper) runJob(ctx context.Context, job *Job) {
	records, err := s.execute(ctx, job)
	if err != nil {
		// The URL stays marked scraped so a failing page is not retried.
		metrics.RecordFetchError()
		s.logger.Warn("job failed", "url", job.URL, "parent_id", job.ParentID, "error", err)
		return
	}

	saved := 0
	for _, rec := range records {
		if s.route(ctx, job, rec) {
			saved++
		}
	}
	s.logger.Info("job done", "url", job.URL, "records", len(records), "saved", saved)
}

// execute fetches the job's URL, runs the extraction engine rooted at the
// job's parent id, and merges the job's base data into every record.
func (s *Scraper) execute(ctx context.Context, job *Job) ([]selector.Record, error) {
	s.waitInterval(ctx)

	body, err := s.fetcher.Get(ctx, job.URL)
	s.lastFetch = time.Now()
	if err != nil {
		return nil, err
	}
	metrics.RecordPageFetch()

	if s.pageloadDelay > 0 {
		sleepCtx(ctx, s.pageloadDelay)
	}

	root, err := htmlq.Parse(body)
	if err != nil {
		// Unparseable pages degrade to "no matches": selectors emit their
		// no-items records against a detached element.
		root = htmlq.Element{}
	}

	records := s.sitemap.Data(job.ParentID, root, imageFetcher{ctx: ctx, fetcher: s.fetcher})
	for _, rec := range records {
		job.mergeBase(rec)
	}
	return records, nil
}

// route decides one record's fate: a follow record whose link selector has
// children spawns a child job and is not saved; everything else goes to the
// store. Reports whether the record was saved.
func (s *Scraper) route(ctx context.Context, job *Job, rec selector.Record) bool {
	if followURL, followID, ok := followTarget(rec); ok && len(s.sitemap.DirectChildren(followID)) > 0 {
		delete(rec, selector.FollowKey)
		delete(rec, selector.FollowIDKey)
		child := NewJob(followURL, followID, rec.Clone(), job)
		if s.queue.Add(child) {
			metrics.RecordJobQueued()
			return false
		}
	}

	if err := s.store.SaveRecord(ctx, s.sitemap.ID, rec); err != nil {
		s.logger.Warn("save record failed", "sitemap", s.sitemap.ID, "error", err)
		return false
	}
	metrics.RecordRecordSaved()
	return true
}

// followTarget reads the control fields a link selector plants in its
// records.
func followTarget(rec selector.Record) (followURL, followID string, ok bool) {
	u, uok := rec[selector.FollowKey].(string)
	id, idok := rec[selector.FollowIDKey].(string)
	if !uok || !idok || u == "" {
		return "", "", false
	}
	return u, id, true
}

// waitInterval blocks until the configured request interval has elapsed
// since the previous fetch.
func (s *Scraper) waitInterval(ctx context.Context) {
	if s.lastFetch.IsZero() {
		return
	}
	wait := s.requestInterval - time.Since(s.lastFetch)
	if wait > 0 {
		sleepCtx(ctx, wait)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// imageFetcher binds the run context onto the page fetcher so image
// selectors can download their targets.
type imageFetcher struct {
	ctx     context.Context
	fetcher Fetcher
}

func (f imageFetcher) Get(url string) ([]byte, error) {
	return f.fetcher.Get(f.ctx, url)
}

// FileName derives a filesystem-safe name from a URL: the last path
// segment with query markers stripped, capped at 130 characters.
func FileName(url string) string {
	parts := strings.Split(url, "/")
	name := parts[len(parts)-1]
	name = strings.ReplaceAll(name, "?", "")
	if len(name) > 130 {
		name = name[:130]
	}
	return name
}
