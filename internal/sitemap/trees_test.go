package sitemap

import (
	"testing"

	"scrapemap/internal/selector"
)

func treeIDs(trees []*Sitemap) [][]string {
	out := make([][]string, len(trees))
	for i, tr := range trees {
		out[i] = ids(tr.Selectors())
	}
	return out
}

func equalTreeIDs(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalStrings(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestTreesSingleManyChild(t *testing.T) {
	m := New("test")
	mustAppend(t, m, child(selector.KindText, "a"))

	got := treeIDs(m.Trees(selector.RootID))
	want := [][]string{{"a"}}
	if !equalTreeIDs(got, want) {
		t.Fatalf("expected trees %v, got %v", want, got)
	}
}

func TestTreesCommonSharedAcrossSplits(t *testing.T) {
	// Two many selectors split into two trees; the scalar title rides along
	// in both.
	m := New("test")
	title := child(selector.KindText, "title")
	title.Many = false
	mustAppend(t, m, title)
	mustAppend(t, m, child(selector.KindText, "a"))
	mustAppend(t, m, child(selector.KindText, "b"))

	got := treeIDs(m.Trees(selector.RootID))
	want := [][]string{{"title", "a"}, {"title", "b"}}
	if !equalTreeIDs(got, want) {
		t.Fatalf("expected trees %v, got %v", want, got)
	}
}

func TestTreesOnlyCommonChildren(t *testing.T) {
	m := New("test")
	a := child(selector.KindText, "a")
	a.Many = false
	mustAppend(t, m, a)
	b := child(selector.KindText, "b")
	b.Many = false
	mustAppend(t, m, b)

	got := treeIDs(m.Trees(selector.RootID))
	want := [][]string{{"a", "b"}}
	if !equalTreeIDs(got, want) {
		t.Fatalf("expected single common tree %v, got %v", want, got)
	}
}

func TestTreesItemScopeRecursion(t *testing.T) {
	// An item scope splits inside itself: the row's scalar name is common to
	// both inner streams.
	m := New("test")
	row := child(selector.KindItem, "row")
	mustAppend(t, m, row)
	name := child(selector.KindText, "name", "row")
	name.Many = false
	mustAppend(t, m, name)
	mustAppend(t, m, child(selector.KindText, "tags", "row"))
	mustAppend(t, m, child(selector.KindText, "links", "row"))

	got := treeIDs(m.Trees(selector.RootID))
	want := [][]string{
		{"row", "name", "tags"},
		{"row", "name", "links"},
	}
	if !equalTreeIDs(got, want) {
		t.Fatalf("expected trees %v, got %v", want, got)
	}
}

func TestTreesScalarLinkWithChildrenSplits(t *testing.T) {
	// A link that spawns follow jobs is never common, even when scalar.
	m := New("test")
	detail := child(selector.KindLink, "detail")
	detail.Many = false
	mustAppend(t, m, detail)
	mustAppend(t, m, child(selector.KindText, "body", "detail"))
	title := child(selector.KindText, "title")
	title.Many = false
	mustAppend(t, m, title)

	got := treeIDs(m.Trees(selector.RootID))
	want := [][]string{{"title", "detail"}}
	if !equalTreeIDs(got, want) {
		t.Fatalf("expected trees %v, got %v", want, got)
	}
}

func TestTreesScalarLinkWithoutChildrenIsCommon(t *testing.T) {
	m := New("test")
	source := child(selector.KindLink, "source")
	source.Many = false
	mustAppend(t, m, source)
	mustAppend(t, m, child(selector.KindText, "entry"))

	got := treeIDs(m.Trees(selector.RootID))
	want := [][]string{{"source", "entry"}}
	if !equalTreeIDs(got, want) {
		t.Fatalf("expected trees %v, got %v", want, got)
	}
}

func TestTreesCoverEverySelector(t *testing.T) {
	m := newCatalog(t)

	covered := make(map[string]bool)
	for _, tr := range m.Trees(selector.RootID) {
		for _, s := range tr.Selectors() {
			covered[s.ID] = true
		}
	}
	for _, s := range m.Selectors() {
		if !covered[s.ID] {
			t.Fatalf("expected selector %q covered by some tree", s.ID)
		}
	}
}

func TestTreesTerminateOnRecursiveItems(t *testing.T) {
	m := New("test")
	mustAppend(t, m, child(selector.KindItem, "outer"))
	mustAppend(t, m, child(selector.KindItem, "inner", "outer", "inner"))
	mustAppend(t, m, child(selector.KindText, "leaf", "inner"))

	// The split must terminate despite the item cycle.
	trees := m.Trees(selector.RootID)
	if len(trees) == 0 {
		t.Fatalf("expected at least one tree")
	}
}
