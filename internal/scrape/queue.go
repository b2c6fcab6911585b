package scrape

import "regexp"

// documentRE rejects URLs pointing at office documents; following them
// would only waste fetches on bytes the selector engine cannot read.
var documentRE = regexp.MustCompile(`(?i)\.(doc|docx|pdf|ppt|pptx|odt)$`)

// Queue is a deduplicating FIFO of jobs. A URL is marked scraped the moment
// its job is accepted, so re-adding it later is a no-op (first wins).
type Queue struct {
	jobs    []*Job
	scraped map[string]struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{scraped: make(map[string]struct{})}
}

// Add enqueues the job and marks its URL scraped. It reports false when the
// URL was already scraped or matches the document denylist.
func (q *Queue) Add(job *Job) bool {
	if !q.CanBeAdded(job) {
		return false
	}
	q.jobs = append(q.jobs, job)
	q.scraped[job.URL] = struct{}{}
	return true
}

// CanBeAdded mirrors Add's rejection rules without side effects.
func (q *Queue) CanBeAdded(job *Job) bool {
	if q.IsScraped(job.URL) {
		return false
	}
	return !documentRE.MatchString(job.URL)
}

// IsScraped reports whether the URL has already been queued.
func (q *Queue) IsScraped(url string) bool {
	_, ok := q.scraped[url]
	return ok
}

// Next pops the head of the queue, or returns nil when empty.
func (q *Queue) Next() *Job {
	if len(q.jobs) == 0 {
		return nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	return len(q.jobs)
}
