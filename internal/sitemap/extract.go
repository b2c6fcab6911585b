package sitemap

import (
	"scrapemap/internal/htmlq"
	"scrapemap/internal/selector"
)

// Extraction. For one parsed document and a starting parent id the engine
// yields fully assembled records: one pass per extraction tree, depth-first
// through item scopes, with the scalar "common data" of each scope merged
// into every multi-record output.

// Data runs the extraction algorithm from parentID against parent and
// returns the assembled records in tree-then-document order. fetcher may be
// nil; it is only consulted by image selectors that download their target.
func (m *Sitemap) Data(parentID string, parent htmlq.Element, fetcher selector.Fetcher) []selector.Record {
	var out []selector.Record
	for _, tree := range m.Trees(parentID) {
		out = append(out, m.treeData(tree, parentID, parent, nil, fetcher)...)
	}
	return out
}

// treeData assembles the records of one extraction tree under parentID.
// common carries scalar values inherited from enclosing scopes; fields
// produced deeper always win over inherited ones.
func (m *Sitemap) treeData(tree *Sitemap, parentID string, parent htmlq.Element, common selector.Record, fetcher selector.Fetcher) []selector.Record {
	merged := common.Clone()
	if merged == nil {
		merged = selector.Record{}
	}
	for k, v := range m.treeCommonData(tree, parentID, parent, fetcher) {
		merged[k] = v
	}

	var out []selector.Record
	for _, child := range tree.DirectChildren(parentID) {
		if !tree.WillReturnMany(child.ID) {
			continue
		}
		out = append(out, m.manyData(tree, child, parent, merged.Clone(), fetcher)...)
	}
	if len(out) == 0 && len(merged) > 0 {
		out = append(out, merged)
	}
	return out
}

// treeCommonData extracts every direct child that cannot return many
// records and merges the results into one scalar map. Item children are
// flattened by recursing into their matched element.
func (m *Sitemap) treeCommonData(tree *Sitemap, parentID string, parent htmlq.Element, fetcher selector.Fetcher) selector.Record {
	common := selector.Record{}
	for _, child := range tree.DirectChildren(parentID) {
		if tree.WillReturnMany(child.ID) {
			continue
		}
		for _, rec := range m.selectorCommonData(tree, child, parent, fetcher) {
			for k, v := range rec {
				common[k] = v
			}
		}
	}
	return common
}

func (m *Sitemap) selectorCommonData(tree *Sitemap, s *selector.Selector, parent htmlq.Element, fetcher selector.Fetcher) []selector.Record {
	if s.Caps().WillReturnItems {
		s.Wait()
		var out []selector.Record
		for _, item := range s.Items(parent) {
			out = append(out, m.treeCommonData(tree, s.ID, item, fetcher))
		}
		return out
	}
	return s.Data(parent, fetcher)
}

// manyData yields all records of a child that can return many. Item
// selectors recurse per matched element with a copy of the common data;
// record-producing selectors merge the common data into each record with
// the record's own fields winning.
func (m *Sitemap) manyData(tree *Sitemap, s *selector.Selector, parent htmlq.Element, common selector.Record, fetcher selector.Fetcher) []selector.Record {
	if s.Caps().WillReturnItems {
		s.Wait()
		var out []selector.Record
		for _, item := range s.Items(parent) {
			out = append(out, m.treeData(tree, s.ID, item, common.Clone(), fetcher)...)
		}
		return out
	}

	recs := s.Data(parent, fetcher)
	out := make([]selector.Record, 0, len(recs))
	for _, rec := range recs {
		for k, v := range common {
			if _, exists := rec[k]; !exists {
				rec[k] = v
			}
		}
		out = append(out, rec)
	}
	return out
}
