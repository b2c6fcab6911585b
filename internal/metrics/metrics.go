package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for the HTTP API and the scrape loop.
// This is intentionally minimal and in-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	pagesFetched int64
	fetchErrors  int64
	recordsSaved int64
	jobsQueued   int64

	runsTotal = make(map[string]int64)
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

// RecordRequest increments the request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	rk := reqKey{Method: method, Path: path, Status: status}
	requestsTotal[rk]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordPageFetch counts one successfully fetched page.
func RecordPageFetch() {
	mu.Lock()
	defer mu.Unlock()
	pagesFetched++
}

// RecordFetchError counts one job terminated by a fetch failure.
func RecordFetchError() {
	mu.Lock()
	defer mu.Unlock()
	fetchErrors++
}

// RecordRecordSaved counts one record persisted to the store.
func RecordRecordSaved() {
	mu.Lock()
	defer mu.Unlock()
	recordsSaved++
}

// RecordJobQueued counts one job accepted by the queue.
func RecordJobQueued() {
	mu.Lock()
	defer mu.Unlock()
	jobsQueued++
}

// RecordRunFinished counts one finished scrape run by final status.
func RecordRunFinished(status string) {
	mu.Lock()
	defer mu.Unlock()
	runsTotal[status]++
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP scrapemap_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE scrapemap_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})

	for _, k := range reqKeys {
		v := requestsTotal[k]
		fmt.Fprintf(&b, "scrapemap_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, v)
	}

	b.WriteString("# HELP scrapemap_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE scrapemap_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP scrapemap_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE scrapemap_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})

	for _, k := range latKeys {
		fmt.Fprintf(&b, "scrapemap_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, latencyMsSum[k])
		fmt.Fprintf(&b, "scrapemap_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, latencyMsCount[k])
	}

	b.WriteString("# HELP scrapemap_pages_fetched_total Pages fetched by the scraper\n")
	b.WriteString("# TYPE scrapemap_pages_fetched_total counter\n")
	fmt.Fprintf(&b, "scrapemap_pages_fetched_total %d\n", pagesFetched)

	b.WriteString("# HELP scrapemap_fetch_errors_total Jobs terminated by fetch failures\n")
	b.WriteString("# TYPE scrapemap_fetch_errors_total counter\n")
	fmt.Fprintf(&b, "scrapemap_fetch_errors_total %d\n", fetchErrors)

	b.WriteString("# HELP scrapemap_records_saved_total Records persisted to the store\n")
	b.WriteString("# TYPE scrapemap_records_saved_total counter\n")
	fmt.Fprintf(&b, "scrapemap_records_saved_total %d\n", recordsSaved)

	b.WriteString("# HELP scrapemap_jobs_queued_total Jobs accepted by the queue\n")
	b.WriteString("# TYPE scrapemap_jobs_queued_total counter\n")
	fmt.Fprintf(&b, "scrapemap_jobs_queued_total %d\n", jobsQueued)

	b.WriteString("# HELP scrapemap_runs_total Finished scrape runs by status\n")
	b.WriteString("# TYPE scrapemap_runs_total counter\n")
	var statuses []string
	for s := range runsTotal {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(&b, "scrapemap_runs_total{status=\"%s\"} %d\n", s, runsTotal[s])
	}

	return b.String()
}
