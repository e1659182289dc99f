package epub

import "slices"

// Version is the EPUB major version declared on the package element.
type Version int

const (
	VersionUnknown Version = iota
	Version2
	Version3
)

func (v Version) String() string {
	switch v {
	case Version2:
		return "2"
	case Version3:
		return "3"
	default:
		return "unknown"
	}
}

// parseVersion maps the package version attribute by its first character.
func parseVersion(attr string) Version {
	if attr == "" {
		return VersionUnknown
	}
	switch attr[0] {
	case '2':
		return Version2
	case '3':
		return Version3
	default:
		return VersionUnknown
	}
}

// ItemRef is a non-owning handle to a manifest item. The zero value is not a
// valid handle; use NoItem for "unresolved".
type ItemRef int

// NoItem marks an unresolved reference.
const NoItem ItemRef = -1

// Valid reports whether the handle points at a manifest slot.
func (r ItemRef) Valid() bool {
	return r >= 0
}

// Metadata represents the metadata section of the OPF
type Metadata struct {
	Version          Version
	Title            string
	Identifier       string
	Language         string
	UniqueIdentifier string // package/@unique-identifier
	CoverImageItemID string
	NCXItem          ItemRef // set only for EPUB 2 packages

	Creators    []Creator
	Publisher   string
	Date        string
	Description string
	Subjects    []string
	Rights      string

	// Metas holds <meta name="..." content="..."/> (EPUB 2) and
	// <meta property="...">value</meta> (EPUB 3) pairs, first one wins.
	Metas map[string]string
}

// Creator represents a creator (author, editor, etc.) of the book
type Creator struct {
	Name string
	Role string // e.g., "aut" for author, "edt" for editor
}

func newMetadata() Metadata {
	return Metadata{NCXItem: NoItem, Metas: make(map[string]string)}
}

func (m Metadata) clone() Metadata {
	out := m
	out.Creators = slices.Clone(m.Creators)
	out.Subjects = slices.Clone(m.Subjects)
	out.Metas = make(map[string]string, len(m.Metas))
	for k, v := range m.Metas {
		out.Metas[k] = v
	}
	return out
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID              string
	Href            string // relative to the package document
	MediaType       string
	Properties      []string
	RequiredModules string
	Fallback        string
}

// HasProperty reports whether the properties list contains token.
func (m ManifestItem) HasProperty(token string) bool {
	return slices.Contains(m.Properties, token)
}

func (m ManifestItem) clone() ManifestItem {
	out := m
	out.Properties = slices.Clone(m.Properties)
	return out
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
	Item   ItemRef
}

// GuideReference is an EPUB 2 <guide><reference/> entry.
type GuideReference struct {
	Type  string
	Title string
	Href  string
}
