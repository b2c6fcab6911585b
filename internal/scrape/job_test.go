package scrape

import (
	"testing"

	"scrapemap/internal/selector"
)

func TestNewJobResolvesRelativeURLs(t *testing.T) {
	parent := NewJob("http://example.com/dir/page1.html", selector.RootID, nil, nil)

	tests := []struct {
		child string
		want  string
	}{
		{"page2.html", "http://example.com/dir/page2.html"},
		{"/page2.html", "http://example.com/page2.html"},
		{"../up.html", "http://example.com/up.html"},
		{"?q=1", "http://example.com/dir/page1.html?q=1"},
		{"#frag", "http://example.com/dir/page1.html#frag"},
		{"http://other.com/abs", "http://other.com/abs"},
		{"//other.com/proto", "http://other.com/proto"},
	}
	for _, tt := range tests {
		job := NewJob(tt.child, "l", nil, parent)
		if job.URL != tt.want {
			t.Fatalf("expected %q joined to %q, got %q", tt.child, tt.want, job.URL)
		}
	}
}

func TestNewJobWithoutParentKeepsURL(t *testing.T) {
	job := NewJob("http://example.com/", selector.RootID, nil, nil)
	if job.URL != "http://example.com/" {
		t.Fatalf("expected url unchanged, got %q", job.URL)
	}
	if job.BaseData == nil {
		t.Fatalf("expected base data initialized")
	}
}

func TestMergeBaseWins(t *testing.T) {
	base := selector.Record{"name": "from-list", "extra": "kept"}
	job := NewJob("http://example.com/", "l", base, nil)

	rec := selector.Record{"name": "from-page", "body": "text"}
	job.mergeBase(rec)

	if rec["name"] != "from-list" {
		t.Fatalf("expected base value to win, got %v", rec["name"])
	}
	if rec["extra"] != "kept" || rec["body"] != "text" {
		t.Fatalf("expected merged record, got %v", rec)
	}
}
