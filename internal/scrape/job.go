package scrape

import (
	"net/url"

	"scrapemap/internal/selector"
)

// Job is one unit of work: a URL to fetch plus the scalar context inherited
// from the page the link was found on. ParentID names the selector the job
// was spawned under, or _root for seed jobs.
type Job struct {
	URL      string
	ParentID string
	BaseData selector.Record
}

// NewJob builds a job. When parent is given the URL is resolved relative to
// the parent job's URL with standard URL-join semantics.
func NewJob(rawURL, parentID string, base selector.Record, parent *Job) *Job {
	u := rawURL
	if parent != nil {
		u = joinURL(parent.URL, rawURL)
	}
	if base == nil {
		base = selector.Record{}
	}
	return &Job{URL: u, ParentID: parentID, BaseData: base}
}

// joinURL resolves child against parent. Unparseable inputs fall back to
// the child as-is.
func joinURL(parent, child string) string {
	base, err := url.Parse(parent)
	if err != nil {
		return child
	}
	ref, err := url.Parse(child)
	if err != nil {
		return child
	}
	return base.ResolveReference(ref).String()
}

// mergeBase merges the job's base data into a produced record. Base values
// win on conflict: they carry the link context the user already chose.
func (j *Job) mergeBase(rec selector.Record) {
	for k, v := range j.BaseData {
		rec[k] = v
	}
}
