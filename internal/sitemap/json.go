package sitemap

import (
	"encoding/json"
	"fmt"
	"strings"

	"scrapemap/internal/selector"
)

// JSON codec for the browser-extension sitemap format. On output, fields
// equal to their defaults are omitted: multiple defaults to true, parents
// to ["_root"], everything else to its zero value.

type sitemapJSON struct {
	ID       string         `json:"_id"`
	StartURL any            `json:"startUrl,omitempty"`
	Sels     []selectorJSON `json:"selectors"`
}

type selectorJSON struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	CSS           string   `json:"selector,omitempty"`
	Parents       []string `json:"parentSelectors,omitempty"`
	Multiple      *bool    `json:"multiple,omitempty"`
	Delay         int      `json:"delay,omitempty"`
	Regex         string   `json:"regex,omitempty"`
	Extract       string   `json:"extract,omitempty"`
	DownloadImage bool     `json:"downloadImage,omitempty"`
}

// Parse decodes a sitemap definition and validates it. Both the lowercase
// kind names and the extension's "SelectorText" style type tags are
// accepted.
func Parse(b []byte) (*Sitemap, error) {
	var raw sitemapJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode sitemap: %w", err)
	}

	m := New(raw.ID)
	switch v := raw.StartURL.(type) {
	case string:
		m.StartURLs = []string{v}
	case []any:
		for _, u := range v {
			s, ok := u.(string)
			if !ok {
				return nil, fmt.Errorf("sitemap %q: startUrl entries must be strings", raw.ID)
			}
			m.StartURLs = append(m.StartURLs, s)
		}
	case nil:
	default:
		return nil, fmt.Errorf("sitemap %q: startUrl must be a string or string array", raw.ID)
	}

	for _, sj := range raw.Sels {
		s := &selector.Selector{
			ID:            strings.TrimSpace(sj.ID),
			Kind:          normalizeKind(sj.Type),
			CSS:           strings.TrimSpace(sj.CSS),
			Parents:       sj.Parents,
			Many:          true,
			DelayMs:       sj.Delay,
			Regex:         sj.Regex,
			Extract:       sj.Extract,
			DownloadImage: sj.DownloadImage,
		}
		if sj.Multiple != nil {
			s.Many = *sj.Multiple
		}
		if len(s.Parents) == 0 {
			s.Parents = []string{selector.RootID}
		}
		if err := m.Append(s); err != nil {
			return nil, fmt.Errorf("sitemap %q: %w", raw.ID, err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("sitemap %q: %w", raw.ID, err)
	}
	return m, nil
}

// MarshalJSON serializes the sitemap back into the extension format,
// omitting fields equal to their defaults.
func (m *Sitemap) MarshalJSON() ([]byte, error) {
	raw := sitemapJSON{ID: m.ID, Sels: make([]selectorJSON, 0, len(m.selectors))}
	switch len(m.StartURLs) {
	case 0:
	case 1:
		raw.StartURL = m.StartURLs[0]
	default:
		raw.StartURL = m.StartURLs
	}
	for _, s := range m.selectors {
		sj := selectorJSON{
			ID:            s.ID,
			Type:          string(s.Kind),
			CSS:           s.CSS,
			Delay:         s.DelayMs,
			Regex:         s.Regex,
			Extract:       s.Extract,
			DownloadImage: s.DownloadImage,
		}
		if !(len(s.Parents) == 1 && s.Parents[0] == selector.RootID) {
			sj.Parents = s.Parents
		}
		if !s.Many {
			f := false
			sj.Multiple = &f
		}
		raw.Sels = append(raw.Sels, sj)
	}
	return json.Marshal(raw)
}

// normalizeKind maps a JSON type tag to a Kind. "SelectorText" and "text"
// both normalize to text; unknown tags fail selector validation later.
func normalizeKind(t string) selector.Kind {
	t = strings.TrimSpace(t)
	t = strings.TrimPrefix(t, "Selector")
	t = strings.TrimSuffix(t, "Selector")
	return selector.Kind(strings.ToLower(t))
}
