package epub

import "slices"

// Spine is the reading order of a package.
type Spine struct {
	items       []SpineItem
	linearCount int

	// Toc is the spine/@toc idref (EPUB 2); informational only.
	Toc string
	// PageProgressionDirection is spine/@page-progression-direction.
	PageProgressionDirection string
}

// NewSpine returns an empty spine.
func NewSpine() *Spine {
	return &Spine{}
}

// Append adds item at the end of the reading order.
func (s *Spine) Append(item SpineItem) {
	s.items = append(s.items, item)
	if item.Linear {
		s.linearCount++
	}
}

// Len returns the number of spine items.
func (s *Spine) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// LinearCount returns the number of items with Linear set.
func (s *Spine) LinearCount() int {
	if s == nil {
		return 0
	}
	return s.linearCount
}

// Items returns the spine items in reading order.
func (s *Spine) Items() []SpineItem {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}

// resolve fills in handles that could not be resolved while parsing, which
// happens when a package lists its spine before its manifest.
func (s *Spine) resolve(m *Manifest) (unresolved int) {
	for i := range s.items {
		if s.items[i].Item.Valid() {
			continue
		}
		if ref, ok := m.Ref(s.items[i].IDRef); ok && s.items[i].IDRef != "" {
			s.items[i].Item = ref
			continue
		}
		unresolved++
	}
	return unresolved
}
