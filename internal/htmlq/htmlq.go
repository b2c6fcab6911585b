// Package htmlq wraps goquery behind the minimal document-query surface the
// selector engine needs: parse a byte buffer, evaluate CSS queries, read
// text/HTML/attributes, and clone+prune subtrees.
package htmlq

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Element is one matched node (or a whole document) that CSS queries can be
// evaluated against.
type Element struct {
	sel *goquery.Selection
}

// Parse builds an Element from raw HTML bytes. The underlying parser is
// lenient; truly unreadable input surfaces as an error and should be treated
// as "no matches" by callers.
func Parse(b []byte) (Element, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return Element{}, err
	}
	return Element{sel: doc.Selection}, nil
}

// ParseString is a convenience for tests and in-memory fragments. Empty or
// whitespace-only input yields an element that matches nothing.
func ParseString(s string) Element {
	e, err := Parse([]byte(s))
	if err != nil {
		return Element{}
	}
	return e
}

// IsZero reports whether the element is detached from any document.
func (e Element) IsZero() bool {
	return e.sel == nil
}

// Select evaluates a CSS query under the element and returns matched
// elements in document order.
func (e Element) Select(css string) []Element {
	if e.sel == nil {
		return nil
	}
	var out []Element
	e.sel.Find(css).Each(func(_ int, s *goquery.Selection) {
		out = append(out, Element{sel: s})
	})
	return out
}

// Text returns the concatenated text content of the element.
func (e Element) Text() string {
	if e.sel == nil {
		return ""
	}
	return e.sel.Text()
}

// HTML returns the inner HTML of the first node of the element.
func (e Element) HTML() string {
	if e.sel == nil {
		return ""
	}
	h, err := e.sel.Html()
	if err != nil {
		return ""
	}
	return h
}

// Attr returns the named attribute of the first node.
func (e Element) Attr(name string) (string, bool) {
	if e.sel == nil {
		return "", false
	}
	return e.sel.Attr(name)
}

// AttrOr returns the named attribute or def when absent.
func (e Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// Clone deep-copies the element so destructive operations do not touch the
// source document.
func (e Element) Clone() Element {
	if e.sel == nil {
		return Element{}
	}
	return Element{sel: e.sel.Clone()}
}

// RemoveAll detaches every descendant matching the CSS query.
func (e Element) RemoveAll(css string) {
	if e.sel == nil {
		return
	}
	e.sel.Find(css).Remove()
}

// AfterEach inserts the literal text as a sibling node after every
// descendant matching the CSS query.
func (e Element) AfterEach(css, text string) {
	if e.sel == nil {
		return
	}
	e.sel.Find(css).AfterHtml(text)
}

// NormalText returns Text with surrounding whitespace trimmed and inner runs
// of whitespace collapsed to single spaces. Used where pages interleave
// markup with indentation.
func (e Element) NormalText() string {
	return strings.Join(strings.Fields(e.Text()), " ")
}
