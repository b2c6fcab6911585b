// Package selector implements the closed family of element extractors a
// sitemap is built from. Every selector turns one parent element into zero
// or more records; the per-kind capability table decides how the sitemap
// engine may combine them.
package selector

import (
	"fmt"
	"regexp"
)

// RootID is the reserved parent id denoting the document root. It never
// names a selector.
const RootID = "_root"

// Control fields carried inside records. The scraper consumes the follow
// pair to spawn child jobs; stores strip all underscore-prefixed keys.
const (
	FollowKey    = "_follow"
	FollowIDKey  = "_follow_id"
	ImageDataKey = "_image_base64"
)

// Kind identifies one of the six selector variants.
type Kind string

const (
	KindText  Kind = "text"
	KindHTML  Kind = "html"
	KindImage Kind = "image"
	KindLink  Kind = "link"
	KindGroup Kind = "group"
	KindItem  Kind = "item"
)

// Caps are the immutable capability flags of a selector kind.
type Caps struct {
	CanReturnMany      bool
	InlineMany         bool
	CanHaveChilds      bool
	CanHaveLocalChilds bool
	CanCreateNewJobs   bool
	WillReturnItems    bool
}

var capsByKind = map[Kind]Caps{
	KindText:  {CanReturnMany: true},
	KindHTML:  {CanReturnMany: true},
	KindImage: {CanReturnMany: true},
	KindGroup: {InlineMany: true},
	KindLink:  {CanReturnMany: true, CanHaveChilds: true, CanCreateNewJobs: true},
	KindItem:  {CanReturnMany: true, CanHaveChilds: true, CanHaveLocalChilds: true, WillReturnItems: true},
}

// Valid reports whether k is one of the six known kinds.
func (k Kind) Valid() bool {
	_, ok := capsByKind[k]
	return ok
}

// Caps returns the capability flags for the kind. Unknown kinds have no
// capabilities.
func (k Kind) Caps() Caps {
	return capsByKind[k]
}

// Record is one extracted data row. Values are strings, nil for missing
// data, or []Record for inlined group results.
type Record map[string]any

// Clone shallow-copies the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Selector is one node in the sitemap graph.
type Selector struct {
	ID      string
	Kind    Kind
	CSS     string
	Parents []string
	Many    bool
	DelayMs int
	Regex   string

	// Extract names an extra attribute read per item. Group kind only.
	Extract string
	// DownloadImage inlines fetched image bytes as base64. Image kind only.
	DownloadImage bool
}

// New returns a selector with the default edge set (child of the root) and
// many enabled, matching the source sitemap format's defaults.
func New(kind Kind, id string) *Selector {
	return &Selector{ID: id, Kind: kind, Parents: []string{RootID}, Many: true}
}

// Caps returns the capability flags of the selector's kind.
func (s *Selector) Caps() Caps {
	return s.Kind.Caps()
}

// WillReturnMany reports whether the selector itself can emit more than one
// record.
func (s *Selector) WillReturnMany() bool {
	return s.Caps().CanReturnMany && s.Many
}

// Columns lists the column names this selector contributes to the sitemap's
// output schema, in order.
func (s *Selector) Columns() []string {
	switch s.Kind {
	case KindItem:
		return nil
	case KindImage:
		return []string{s.ID + "-src"}
	case KindLink:
		return []string{s.ID, s.ID + "-href"}
	default:
		return []string{s.ID}
	}
}

// HasParent reports whether parentID is an incoming edge of the selector.
func (s *Selector) HasParent(parentID string) bool {
	for _, p := range s.Parents {
		if p == parentID {
			return true
		}
	}
	return false
}

// RemoveParent drops parentID from the selector's edges. Missing ids are
// ignored.
func (s *Selector) RemoveParent(parentID string) {
	for i, p := range s.Parents {
		if p == parentID {
			s.Parents = append(s.Parents[:i], s.Parents[i+1:]...)
			return
		}
	}
}

// RenameParent rewrites the first occurrence of parentID to newID. Missing
// ids are ignored.
func (s *Selector) RenameParent(parentID, newID string) {
	for i, p := range s.Parents {
		if p == parentID {
			s.Parents[i] = newID
			return
		}
	}
}

// Clone deep-copies the selector.
func (s *Selector) Clone() *Selector {
	c := *s
	c.Parents = append([]string(nil), s.Parents...)
	return &c
}

// Validate checks the load-time invariants: a non-empty id distinct from the
// root marker, a known kind, at least one parent, a non-negative delay, and
// a compilable regex.
func (s *Selector) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("selector has no id")
	}
	if s.ID == RootID {
		return fmt.Errorf("selector id %q is reserved", RootID)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("selector %q: unknown kind %q", s.ID, s.Kind)
	}
	if len(s.Parents) == 0 {
		return fmt.Errorf("selector %q: empty parents", s.ID)
	}
	if s.DelayMs < 0 {
		return fmt.Errorf("selector %q: negative delay", s.ID)
	}
	if s.Regex != "" {
		if _, err := regexp.Compile(s.Regex); err != nil {
			return fmt.Errorf("selector %q: bad regex: %w", s.ID, err)
		}
	}
	return nil
}
