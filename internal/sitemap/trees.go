package sitemap

import "scrapemap/internal/selector"

// Tree split. A sitemap graph can describe several independent record
// streams; the split partitions the children of a parent into selectors
// common to every stream and selectors that open a stream of their own.
// Each resulting tree is a mini-sitemap holding only the selectors relevant
// to one stream.

// Trees returns the extraction trees under parentID.
func (m *Sitemap) Trees(parentID string) []*Sitemap {
	return m.findTrees(parentID, nil, map[string]bool{parentID: true})
}

// findTrees walks the splitting children of parentID. path guards against
// item-scope cycles so the split terminates even on sitemaps where
// HasRecursiveSelectors reports true.
func (m *Sitemap) findTrees(parentID string, inherited []*selector.Selector, path map[string]bool) []*Sitemap {
	commons := append(append([]*selector.Selector(nil), inherited...), m.commonToAllTrees(parentID)...)

	var trees []*Sitemap
	for _, s := range m.DirectChildren(parentID) {
		if m.SelectorIsCommonToAllTrees(s) {
			continue
		}
		tree := newTree(append(append([]*selector.Selector(nil), commons...), s))
		if s.Caps().CanHaveLocalChilds && !path[s.ID] {
			// Item selectors open a nested scope; the trees live inside it.
			path[s.ID] = true
			trees = append(trees, m.findTrees(s.ID, tree.selectors, path)...)
			delete(path, s.ID)
		} else {
			trees = append(trees, tree)
		}
	}

	if len(trees) == 0 {
		return []*Sitemap{newTree(commons)}
	}
	return trees
}

// commonToAllTrees expands the common children of parentID with their
// transitive descendants, preserving sitemap order of first appearance.
func (m *Sitemap) commonToAllTrees(parentID string) []*selector.Selector {
	var out []*selector.Selector
	seen := make(map[string]struct{})
	add := func(s *selector.Selector) {
		if _, dup := seen[s.ID]; dup {
			return
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	for _, s := range m.DirectChildren(parentID) {
		if m.SelectorIsCommonToAllTrees(s) {
			add(s)
			for _, c := range m.All(s.ID) {
				add(c)
			}
		}
	}
	return out
}

// SelectorIsCommonToAllTrees reports whether s contributes scalar context
// shared by every tree: neither s nor any transitive descendant returns
// multiple records or follows to a new page while having children.
func (m *Sitemap) SelectorIsCommonToAllTrees(s *selector.Selector) bool {
	if !m.commonHere(s) {
		return false
	}
	for _, c := range m.All(s.ID) {
		if !m.commonHere(c) {
			return false
		}
	}
	return true
}

func (m *Sitemap) commonHere(s *selector.Selector) bool {
	if s.WillReturnMany() {
		return false
	}
	if s.Caps().CanCreateNewJobs && len(m.DirectChildren(s.ID)) > 0 {
		return false
	}
	return true
}
