package selector

import (
	"encoding/base64"
	"errors"
	"reflect"
	"testing"

	"scrapemap/internal/htmlq"
)

func parentOf(t *testing.T, html string) htmlq.Element {
	t.Helper()
	e := htmlq.ParseString(html)
	if e.IsZero() {
		t.Fatalf("failed to parse fixture html")
	}
	return e
}

func TestTextData(t *testing.T) {
	parent := parentOf(t, `<div><span>hello</span><span>world</span></div>`)

	s := New(KindText, "a")
	s.CSS = "span"
	got := s.Data(parent, nil)
	want := []Record{{"a": "hello"}, {"a": "world"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTextDataSingle(t *testing.T) {
	parent := parentOf(t, `<div><span>hello</span><span>world</span></div>`)

	s := New(KindText, "a")
	s.CSS = "span"
	s.Many = false
	got := s.Data(parent, nil)
	want := []Record{{"a": "hello"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTextDataNoMatch(t *testing.T) {
	parent := parentOf(t, `<div>nothing here</div>`)

	s := New(KindText, "a")
	s.CSS = "span"
	got := s.Data(parent, nil)
	want := []Record{{"a": nil}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTextDataDropsScriptAndStyle(t *testing.T) {
	parent := parentOf(t, `<div id="d">visible<script>hidden()</script><style>.x{}</style></div>`)

	s := New(KindText, "a")
	s.CSS = "#d"
	got := s.Data(parent, nil)
	want := []Record{{"a": "visible"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTextDataBreaksOnBr(t *testing.T) {
	parent := parentOf(t, `<div id="d">a<br>b<br>c</div>`)

	s := New(KindText, "a")
	s.CSS = "#d"
	got := s.Data(parent, nil)
	want := []Record{{"a": "a\nb\nc"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTextDataRegex(t *testing.T) {
	parent := parentOf(t, `<div id="d">price: 10.99 USD</div>`)

	s := New(KindText, "a")
	s.CSS = "#d"
	s.Regex = `\d+\.\d+`
	got := s.Data(parent, nil)
	want := []Record{{"a": "10.99"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTextDataRegexNoMatch(t *testing.T) {
	parent := parentOf(t, `<div id="d">no digits</div>`)

	s := New(KindText, "a")
	s.CSS = "#d"
	s.Regex = `\d+`
	got := s.Data(parent, nil)
	want := []Record{{"a": nil}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestHTMLData(t *testing.T) {
	parent := parentOf(t, `<div id="d"><b>bold</b> text</div>`)

	s := New(KindHTML, "a")
	s.CSS = "#d"
	got := s.Data(parent, nil)
	want := []Record{{"a": "<b>bold</b> text"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLinkData(t *testing.T) {
	parent := parentOf(t, `<div><a href="http://example.com/1">one</a><a href="http://example.com/2">two</a></div>`)

	s := New(KindLink, "l")
	s.CSS = "a"
	got := s.Data(parent, nil)
	want := []Record{
		{"l": "one", "l-href": "http://example.com/1", FollowKey: "http://example.com/1", FollowIDKey: "l"},
		{"l": "two", "l-href": "http://example.com/2", FollowKey: "http://example.com/2", FollowIDKey: "l"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLinkDataNoMatchEmitsNothing(t *testing.T) {
	parent := parentOf(t, `<div>no links</div>`)

	s := New(KindLink, "l")
	s.CSS = "a"
	if got := s.Data(parent, nil); got != nil {
		t.Fatalf("expected no records for link with no matches, got %v", got)
	}
}

func TestGroupDataInlinesMatches(t *testing.T) {
	parent := parentOf(t, `<ul><li>a</li><li>b</li></ul>`)

	s := New(KindGroup, "g")
	s.CSS = "li"
	got := s.Data(parent, nil)
	want := []Record{{"g": []Record{{"g": "a"}, {"g": "b"}}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestGroupDataNoMatchInlinesEmpty(t *testing.T) {
	parent := parentOf(t, `<div>nothing</div>`)

	s := New(KindGroup, "g")
	s.CSS = "li"
	got := s.Data(parent, nil)
	want := []Record{{"g": []Record{}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestGroupDataExtractAttr(t *testing.T) {
	parent := parentOf(t, `<ul><li data-id="7">a</li><li>b</li></ul>`)

	s := New(KindGroup, "g")
	s.CSS = "li"
	s.Extract = "data-id"
	got := s.Data(parent, nil)
	want := []Record{{"g": []Record{
		{"g": "a", "g-data-id": "7"},
		{"g": "b", "g-data-id": nil},
	}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestImageData(t *testing.T) {
	parent := parentOf(t, `<div><img src="http://example.com/a.png"></div>`)

	s := New(KindImage, "i")
	s.CSS = "img"
	got := s.Data(parent, nil)
	want := []Record{{"i-src": "http://example.com/a.png"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestImageDataNoMatch(t *testing.T) {
	parent := parentOf(t, `<div>no images</div>`)

	s := New(KindImage, "i")
	s.CSS = "img"
	got := s.Data(parent, nil)
	want := []Record{{"i-src": nil}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

type fetcherFunc func(url string) ([]byte, error)

func (f fetcherFunc) Get(url string) ([]byte, error) { return f(url) }

func TestImageDataDownload(t *testing.T) {
	parent := parentOf(t, `<div><img src="http://example.com/a.png"></div>`)

	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	fetcher := fetcherFunc(func(url string) ([]byte, error) {
		if url != "http://example.com/a.png" {
			return nil, errors.New("unexpected url")
		}
		return payload, nil
	})

	s := New(KindImage, "i")
	s.CSS = "img"
	s.DownloadImage = true
	got := s.Data(parent, fetcher)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0]["i-src"] != "http://example.com/a.png" {
		t.Fatalf("expected src column, got %v", got[0])
	}
	if got[0][ImageDataKey] != base64.StdEncoding.EncodeToString(payload) {
		t.Fatalf("expected base64 image payload, got %v", got[0][ImageDataKey])
	}
}

func TestImageDataDownloadFailureKeepsSrc(t *testing.T) {
	parent := parentOf(t, `<div><img src="http://example.com/a.png"></div>`)

	fetcher := fetcherFunc(func(url string) ([]byte, error) {
		return nil, errors.New("boom")
	})

	s := New(KindImage, "i")
	s.CSS = "img"
	s.DownloadImage = true
	got := s.Data(parent, fetcher)
	want := []Record{{"i-src": "http://example.com/a.png"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestItemSelectorReturnsNoData(t *testing.T) {
	parent := parentOf(t, `<div class="row">x</div>`)

	s := New(KindItem, "row")
	s.CSS = ".row"
	if got := s.Data(parent, nil); got != nil {
		t.Fatalf("expected item selector to produce no records, got %v", got)
	}
	if items := s.Items(parent); len(items) != 1 {
		t.Fatalf("expected 1 item element, got %d", len(items))
	}
}

func TestItemsEmptyCSSMatchesParent(t *testing.T) {
	parent := parentOf(t, `<div id="d">x</div>`)

	s := New(KindText, "a")
	items := s.Items(parent)
	if len(items) != 1 {
		t.Fatalf("expected parent itself for empty css, got %d items", len(items))
	}
}

func TestItemsZeroParent(t *testing.T) {
	s := New(KindText, "a")
	if items := s.Items(htmlq.Element{}); items != nil {
		t.Fatalf("expected no items for zero parent, got %v", items)
	}
}
