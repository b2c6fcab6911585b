// Package sitemap holds the ordered selector graph and the extraction
// engine that interprets it against an HTML document.
package sitemap

import (
	"fmt"

	"scrapemap/internal/selector"
)

// Sitemap is an ordered collection of selectors plus the start-URL patterns
// a scrape is seeded from. Order is preserved across serialization and used
// as the tie-break for output ordering.
type Sitemap struct {
	ID        string
	StartURLs []string

	selectors []*selector.Selector
}

// New returns an empty sitemap with the given id.
func New(id string) *Sitemap {
	return &Sitemap{ID: id}
}

// Len returns the number of selectors.
func (m *Sitemap) Len() int {
	return len(m.selectors)
}

// Selectors returns the selectors in sitemap order. The returned slice must
// not be mutated.
func (m *Sitemap) Selectors() []*selector.Selector {
	return m.selectors
}

// At returns the selector at pos.
func (m *Sitemap) At(pos int) *selector.Selector {
	return m.selectors[pos]
}

// Get returns the selector with the given id, or nil when no such selector
// exists.
func (m *Sitemap) Get(id string) *selector.Selector {
	if i := m.Index(id); i >= 0 {
		return m.selectors[i]
	}
	return nil
}

// Index returns the position of the selector with the given id, or -1.
func (m *Sitemap) Index(id string) int {
	for i, s := range m.selectors {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Append adds a selector at the end. Duplicate ids are rejected.
func (m *Sitemap) Append(s *selector.Selector) error {
	return m.Insert(len(m.selectors), s)
}

// Insert adds a selector at pos. Duplicate ids are rejected.
func (m *Sitemap) Insert(pos int, s *selector.Selector) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if m.Get(s.ID) != nil {
		return fmt.Errorf("selector id %q is already taken", s.ID)
	}
	m.selectors = append(m.selectors, nil)
	copy(m.selectors[pos+1:], m.selectors[pos:])
	m.selectors[pos] = s
	return nil
}

// Set replaces the selector at pos. When the id changes, every reference to
// the old id in other selectors' parents is rewritten to the new id; a new
// id colliding with an existing selector is rejected.
func (m *Sitemap) Set(pos int, s *selector.Selector) error {
	if err := s.Validate(); err != nil {
		return err
	}
	current := m.selectors[pos]
	if current.ID != s.ID && m.Get(s.ID) != nil {
		return fmt.Errorf("selector id %q is already taken", s.ID)
	}
	m.selectors[pos] = s
	if current.ID != s.ID {
		for _, other := range m.selectors {
			other.RenameParent(current.ID, s.ID)
		}
	}
	return nil
}

// Delete removes the selector at pos, strips its id from every other
// selector's parents, and transitively deletes any selector left without
// parents. A self-edge counts as a remaining parent.
func (m *Sitemap) Delete(pos int) {
	id := m.selectors[pos].ID
	var orphans []string
	for _, s := range m.selectors {
		s.RemoveParent(id)
		if len(s.Parents) == 0 && s.ID != id {
			orphans = append(orphans, s.ID)
		}
	}
	m.selectors = append(m.selectors[:pos], m.selectors[pos+1:]...)
	for _, oid := range orphans {
		if i := m.Index(oid); i >= 0 {
			m.Delete(i)
		}
	}
}

// DeleteID removes the selector with the given id. Unknown ids are ignored.
func (m *Sitemap) DeleteID(id string) {
	if i := m.Index(id); i >= 0 {
		m.Delete(i)
	}
}

// Clone deep-copies the sitemap, its selectors included.
func (m *Sitemap) Clone() *Sitemap {
	c := &Sitemap{ID: m.ID, StartURLs: append([]string(nil), m.StartURLs...)}
	c.selectors = make([]*selector.Selector, len(m.selectors))
	for i, s := range m.selectors {
		c.selectors[i] = s.Clone()
	}
	return c
}

// Validate checks load-time invariants across the whole sitemap: selector
// level validity, id uniqueness, and well-formed start-URL ranges.
func (m *Sitemap) Validate() error {
	seen := make(map[string]struct{}, len(m.selectors))
	for _, s := range m.selectors {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("selector id %q is already taken", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	for _, u := range m.StartURLs {
		if err := validateStartURL(u); err != nil {
			return err
		}
	}
	return nil
}

// newTree builds a mini-sitemap out of an ordered selector list, dropping
// repeated ids. Trees share selector pointers with the parent sitemap;
// selectors are read-only during a run.
func newTree(sels []*selector.Selector) *Sitemap {
	t := &Sitemap{}
	seen := make(map[string]struct{}, len(sels))
	for _, s := range sels {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		t.selectors = append(t.selectors, s)
	}
	return t
}
