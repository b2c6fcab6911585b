package selector

import (
	"encoding/base64"
	"regexp"
	"strings"
	"time"

	"scrapemap/internal/htmlq"
)

// Fetcher downloads raw bytes for a URL. Image selectors use it when
// DownloadImage is set; a nil fetcher skips the download.
type Fetcher interface {
	Get(url string) ([]byte, error)
}

// brMarker is inserted after <br> tags before reading text so line breaks
// survive text extraction.
const brMarker = `\n`

// Wait sleeps for the selector's configured delay. The extraction engine
// calls it before walking item selectors, which bypass Data.
func (s *Selector) Wait() {
	if s.DelayMs > 0 {
		time.Sleep(time.Duration(s.DelayMs) * time.Millisecond)
	}
}

// Items evaluates the selector's CSS query under parent and returns the
// matched elements in document order. An empty query matches the parent
// itself. When many is false at most one element is returned.
func (s *Selector) Items(parent htmlq.Element) []htmlq.Element {
	if parent.IsZero() {
		return nil
	}
	var items []htmlq.Element
	if s.CSS == "" {
		items = []htmlq.Element{parent}
	} else {
		items = parent.Select(s.CSS)
	}
	if !s.Many && len(items) > 1 {
		items = items[:1]
	}
	return items
}

// Data extracts records from parent. It sleeps for the configured delay,
// runs the per-kind extraction for each matched item, applies the regex
// post-filter, and falls back to the kind's no-items record when nothing
// matched. Item selectors produce elements, not records; the engine walks
// them through Items instead.
func (s *Selector) Data(parent htmlq.Element, fetcher Fetcher) []Record {
	s.Wait()
	caps := s.Caps()
	if caps.WillReturnItems {
		return nil
	}

	var out []Record
	var inlined []Record
	for _, item := range s.Items(parent) {
		rec := s.itemData(item, fetcher)
		if rec == nil {
			continue
		}
		s.applyRegex(rec)
		if caps.InlineMany {
			inlined = append(inlined, rec)
			continue
		}
		out = append(out, rec)
		if !s.Many {
			break
		}
	}

	if caps.InlineMany {
		if inlined == nil {
			inlined = []Record{}
		}
		return []Record{{s.ID: inlined}}
	}
	if len(out) == 0 {
		return s.noItemsData()
	}
	return out
}

// itemData produces the single record one matched element contributes.
func (s *Selector) itemData(item htmlq.Element, fetcher Fetcher) Record {
	switch s.Kind {
	case KindText:
		return Record{s.ID: textContent(item)}
	case KindHTML:
		return Record{s.ID: item.HTML()}
	case KindImage:
		rec := Record{s.ID + "-src": nil}
		if src, ok := item.Attr("src"); ok {
			rec[s.ID+"-src"] = src
			if s.DownloadImage && src != "" && fetcher != nil {
				if b, err := fetcher.Get(src); err == nil {
					rec[ImageDataKey] = base64.StdEncoding.EncodeToString(b)
				}
			}
		}
		return rec
	case KindLink:
		rec := Record{s.ID: item.Text(), s.ID + "-href": nil}
		if href, ok := item.Attr("href"); ok {
			rec[s.ID+"-href"] = href
			rec[FollowKey] = href
			rec[FollowIDKey] = s.ID
		}
		return rec
	case KindGroup:
		rec := Record{s.ID: item.Text()}
		if s.Extract != "" {
			key := s.ID + "-" + s.Extract
			if v, ok := item.Attr(s.Extract); ok {
				rec[key] = v
			} else {
				rec[key] = nil
			}
		}
		return rec
	}
	return nil
}

// noItemsData is the record emitted when the CSS query matched nothing.
// Link selectors emit no record at all; every other record-producing kind
// emits one null record under its declared column.
func (s *Selector) noItemsData() []Record {
	switch s.Kind {
	case KindLink:
		return nil
	case KindImage:
		return []Record{{s.ID + "-src": nil}}
	default:
		return []Record{{s.ID: nil}}
	}
}

// applyRegex overwrites the selector's own column with the first regex
// match, or null when the pattern does not match.
func (s *Selector) applyRegex(rec Record) {
	if s.Regex == "" {
		return
	}
	v, ok := rec[s.ID]
	if !ok {
		return
	}
	str, ok := v.(string)
	if !ok {
		return
	}
	re, err := regexp.Compile(s.Regex)
	if err != nil {
		return
	}
	if m := re.FindString(str); m != "" || re.MatchString(str) {
		rec[s.ID] = m
	} else {
		rec[s.ID] = nil
	}
}

// textContent reads the element's text with script/style contents dropped
// and <br> tags turned into newlines.
func textContent(item htmlq.Element) string {
	c := item.Clone()
	c.RemoveAll("script, style")
	c.AfterEach("br", brMarker)
	text := c.Text()
	text = strings.ReplaceAll(text, brMarker+" ", "\n")
	text = strings.ReplaceAll(text, brMarker, "\n")
	return text
}
