package epub

import "slices"

// TOCSource names the document a TOC was built from.
type TOCSource string

const (
	TOCSourceNCX TOCSource = "ncx"
	TOCSourceNav TOCSource = "nav"
)

// TOCItem is one entry of the table of contents. Parent and Children are
// indexes into the owning TOC; Parent is -1 for root entries.
type TOCItem struct {
	Title    string
	Href     string // as written in the navigation document
	Path     string // archive path of the target, fragment removed
	Fragment string
	Parent   int
	Children []int
}

// TOC is a tree of entries stored in an arena. Root entries are kept in
// document order.
type TOC struct {
	Source TOCSource
	items  []TOCItem
	roots  []int
}

func newTOC(source TOCSource) *TOC {
	return &TOC{Source: source}
}

// add appends an entry under parent (-1 for a root) and returns its index.
func (t *TOC) add(parent int, title, href, path, fragment string) int {
	idx := len(t.items)
	t.items = append(t.items, TOCItem{
		Title:    title,
		Href:     href,
		Path:     path,
		Fragment: fragment,
		Parent:   parent,
	})
	if parent < 0 {
		t.roots = append(t.roots, idx)
	} else {
		t.items[parent].Children = append(t.items[parent].Children, idx)
	}
	return idx
}

func (t *TOC) setTitle(idx int, title string) {
	t.items[idx].Title = title
}

func (t *TOC) setTarget(idx int, href, path, fragment string) {
	t.items[idx].Href = href
	t.items[idx].Path = path
	t.items[idx].Fragment = fragment
}

// Len returns the total number of entries.
func (t *TOC) Len() int {
	if t == nil {
		return 0
	}
	return len(t.items)
}

// RootCount returns the number of top level entries.
func (t *TOC) RootCount() int {
	if t == nil {
		return 0
	}
	return len(t.roots)
}

// Roots returns the indexes of the top level entries in document order.
func (t *TOC) Roots() []int {
	if t == nil {
		return nil
	}
	return slices.Clone(t.roots)
}

// Item returns a copy of the entry at idx.
func (t *TOC) Item(idx int) (TOCItem, bool) {
	if t == nil || idx < 0 || idx >= len(t.items) {
		return TOCItem{}, false
	}
	item := t.items[idx]
	item.Children = slices.Clone(item.Children)
	return item, true
}

// HasParent reports whether the entry at idx is nested under another entry.
func (t *TOC) HasParent(idx int) bool {
	_, ok := t.Parent(idx)
	return ok
}

// Parent returns the index of the parent entry.
func (t *TOC) Parent(idx int) (int, bool) {
	item, ok := t.Item(idx)
	if !ok || item.Parent < 0 {
		return -1, false
	}
	return item.Parent, true
}

// ChildCount returns the number of direct children of the entry at idx.
func (t *TOC) ChildCount(idx int) int {
	if t == nil || idx < 0 || idx >= len(t.items) {
		return 0
	}
	return len(t.items[idx].Children)
}

// Children returns the indexes of the direct children of the entry at idx.
func (t *TOC) Children(idx int) []int {
	if t == nil || idx < 0 || idx >= len(t.items) {
		return nil
	}
	return slices.Clone(t.items[idx].Children)
}

// Walk visits every entry depth first in document order. Returning false
// from fn skips the entry's children.
func (t *TOC) Walk(fn func(idx, depth int, item TOCItem) bool) {
	if t == nil {
		return
	}
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		if !fn(idx, depth, t.items[idx]) {
			return
		}
		for _, c := range t.items[idx].Children {
			visit(c, depth+1)
		}
	}
	for _, r := range t.roots {
		visit(r, 0)
	}
}
