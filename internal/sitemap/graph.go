package sitemap

import (
	"strings"

	"scrapemap/internal/selector"
)

// Graph queries. All of them ignore unknown ids silently, returning empty
// results, so callers can interleave them with mutations.

// IDs returns the root marker followed by every selector id in sitemap
// order.
func (m *Sitemap) IDs() []string {
	out := make([]string, 0, len(m.selectors)+1)
	out = append(out, selector.RootID)
	for _, s := range m.selectors {
		out = append(out, s.ID)
	}
	return out
}

// PossibleParentIDs returns the ids a selector may name as a parent: the
// root plus every selector whose kind can have children.
func (m *Sitemap) PossibleParentIDs() []string {
	out := []string{selector.RootID}
	for _, s := range m.selectors {
		if s.Caps().CanHaveChilds {
			out = append(out, s.ID)
		}
	}
	return out
}

// Columns concatenates every selector's columns in sitemap order.
func (m *Sitemap) Columns() []string {
	var out []string
	for _, s := range m.selectors {
		out = append(out, s.Columns()...)
	}
	return out
}

// All returns every selector when parentID is empty, otherwise the
// transitive children of parentID. Each selector is visited at most once
// and results come back in sitemap order.
func (m *Sitemap) All(parentID string) []*selector.Selector {
	if parentID == "" {
		return append([]*selector.Selector(nil), m.selectors...)
	}
	seen := make(map[int]bool)
	var walk func(pid string)
	walk = func(pid string) {
		for pos, s := range m.selectors {
			if !seen[pos] && s.HasParent(pid) {
				seen[pos] = true
				walk(s.ID)
			}
		}
	}
	walk(parentID)
	var out []*selector.Selector
	for pos, s := range m.selectors {
		if seen[pos] {
			out = append(out, s)
		}
	}
	return out
}

// DirectChildren returns the selectors directly under parentID, in sitemap
// order.
func (m *Sitemap) DirectChildren(parentID string) []*selector.Selector {
	var out []*selector.Selector
	for _, s := range m.selectors {
		if s.HasParent(parentID) {
			out = append(out, s)
		}
	}
	return out
}

// WillReturnMany reports whether the selector or any of its transitive
// children can emit more than one record.
func (m *Sitemap) WillReturnMany(id string) bool {
	s := m.Get(id)
	if s == nil {
		return false
	}
	if s.WillReturnMany() {
		return true
	}
	for _, c := range m.All(id) {
		if c.WillReturnMany() {
			return true
		}
	}
	return false
}

// HasRecursiveSelectors reports whether any path through item-scope edges
// reaches a selector twice. Link selectors break cycles: they spawn new
// jobs instead of recursing on the same page, so link self-loops are not
// recursive.
func (m *Sitemap) HasRecursiveSelectors() bool {
	var visited []*selector.Selector
	found := false
	var check func(s *selector.Selector)
	check = func(s *selector.Selector) {
		if found {
			return
		}
		for _, v := range visited {
			if v == s {
				found = true
				return
			}
		}
		if !s.Caps().WillReturnItems {
			return
		}
		visited = append(visited, s)
		for _, c := range m.DirectChildren(s.ID) {
			check(c)
		}
		visited = visited[:len(visited)-1]
	}
	for _, top := range m.selectors {
		visited = visited[:0]
		check(top)
		if found {
			return true
		}
	}
	return false
}

// OnePageSelectors returns the subset of selectors reachable on the same
// page as id: item-scope ancestors plus all same-page children, in sitemap
// order.
func (m *Sitemap) OnePageSelectors(id string) []*selector.Selector {
	s := m.Get(id)
	if s == nil {
		return nil
	}
	keep := map[int]bool{m.Index(id): true}
	var findParents func(s *selector.Selector)
	findParents = func(s *selector.Selector) {
		for _, pid := range s.Parents {
			if pid == selector.RootID {
				return
			}
			p := m.Get(pid)
			if p == nil {
				continue
			}
			if pos := m.Index(pid); !keep[pos] && p.Caps().WillReturnItems {
				keep[pos] = true
				findParents(p)
			}
		}
	}
	findParents(s)
	for _, c := range m.OnePageChildren(id) {
		keep[m.Index(c.ID)] = true
	}
	var out []*selector.Selector
	for pos, sel := range m.selectors {
		if keep[pos] {
			out = append(out, sel)
		}
	}
	return out
}

// OnePageChildren returns the children of parentID usable within one page,
// walking only through selectors that stay on the page.
func (m *Sitemap) OnePageChildren(parentID string) []*selector.Selector {
	keep := make(map[int]bool)
	var addChildren func(p *selector.Selector)
	addChildren = func(p *selector.Selector) {
		if p == nil || !p.Caps().WillReturnItems {
			return
		}
		for _, c := range m.DirectChildren(p.ID) {
			keep[m.Index(c.ID)] = true
			addChildren(c)
		}
	}
	addChildren(m.Get(parentID))
	var out []*selector.Selector
	for pos, s := range m.selectors {
		if keep[pos] {
			out = append(out, s)
		}
	}
	return out
}

// OnePageCSS builds a page-local CSS query for id: the queries of the
// breadcrumb ancestors that stay on the page, then the target's own query,
// joined with single spaces.
func (m *Sitemap) OnePageCSS(id string, breadcrumb []string) string {
	s := m.Get(id)
	if s == nil {
		return ""
	}
	parts := []string{}
	if parent := m.OnePageParentCSS(breadcrumb); parent != "" {
		parts = append(parts, parent)
	}
	if s.CSS != "" {
		parts = append(parts, s.CSS)
	}
	return strings.Join(parts, " ")
}

// OnePageParentCSS joins the CSS queries of the breadcrumb selectors that
// return items, skipping the rest.
func (m *Sitemap) OnePageParentCSS(breadcrumb []string) string {
	var parts []string
	for _, pid := range breadcrumb {
		p := m.Get(pid)
		if p != nil && p.Caps().WillReturnItems && p.CSS != "" {
			parts = append(parts, p.CSS)
		}
	}
	return strings.Join(parts, " ")
}
