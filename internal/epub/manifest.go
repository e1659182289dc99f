package epub

import (
	"github.com/cespare/xxhash/v2"
)

// manifestBuckets is sized for manifests with several hundred items while
// keeping collision chains short.
const manifestBuckets = 512

// Manifest owns the manifest items of a package. Items live in an arena and
// are addressed by ItemRef; the spine, the TOC and the metadata hold only
// those handles. A handle stays valid for the lifetime of the Manifest,
// including after its item is replaced by a later duplicate id.
type Manifest struct {
	items   []ManifestItem
	buckets [manifestBuckets][]ItemRef
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{}
}

func bucketFor(id string) int {
	return int(xxhash.Sum64String(id) % manifestBuckets)
}

// Insert adds item to the manifest. If an item with the same id already
// exists it is replaced in place and its handle is returned, so the item
// count never grows for a duplicate id.
func (m *Manifest) Insert(item ManifestItem) ItemRef {
	b := bucketFor(item.ID)
	for _, ref := range m.buckets[b] {
		if m.items[ref].ID == item.ID {
			m.items[ref] = item.clone()
			return ref
		}
	}
	ref := ItemRef(len(m.items))
	m.items = append(m.items, item.clone())
	m.buckets[b] = append(m.buckets[b], ref)
	return ref
}

// Ref returns the handle of the item with the given id.
func (m *Manifest) Ref(id string) (ItemRef, bool) {
	if m == nil {
		return NoItem, false
	}
	for _, ref := range m.buckets[bucketFor(id)] {
		if m.items[ref].ID == id {
			return ref, true
		}
	}
	return NoItem, false
}

// Lookup returns the item with the given id. The returned value shares no
// mutable state with the manifest.
func (m *Manifest) Lookup(id string) (ManifestItem, bool) {
	ref, ok := m.Ref(id)
	if !ok {
		return ManifestItem{}, false
	}
	return m.items[ref].clone(), true
}

// Copy is Lookup under the name used by copy-out callers; the result is an
// independent deep copy.
func (m *Manifest) Copy(id string) (ManifestItem, bool) {
	return m.Lookup(id)
}

// Item dereferences a handle.
func (m *Manifest) Item(ref ItemRef) (ManifestItem, bool) {
	if m == nil || !ref.Valid() || int(ref) >= len(m.items) {
		return ManifestItem{}, false
	}
	return m.items[ref].clone(), true
}

// Len returns the number of distinct ids.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// Items returns copies of all items in first-insertion order.
func (m *Manifest) Items() []ManifestItem {
	if m == nil {
		return nil
	}
	out := make([]ManifestItem, len(m.items))
	for i, item := range m.items {
		out[i] = item.clone()
	}
	return out
}

// ItemsWithProperty returns the items whose properties contain token.
func (m *Manifest) ItemsWithProperty(token string) []ManifestItem {
	var out []ManifestItem
	for _, item := range m.Items() {
		if item.HasProperty(token) {
			out = append(out, item)
		}
	}
	return out
}

// ItemsWithRequiredModule returns the items whose required-modules
// attribute names module.
func (m *Manifest) ItemsWithRequiredModule(module string) []ManifestItem {
	var out []ManifestItem
	for _, item := range m.Items() {
		if hasToken(item.RequiredModules, module) {
			out = append(out, item)
		}
	}
	return out
}

// itemByHref finds an item by its package-relative href, ignoring fragments.
func (m *Manifest) itemByHref(href string) (ManifestItem, bool) {
	href = stripFragment(href)
	for _, item := range m.items {
		if stripFragment(item.Href) == href {
			return item.clone(), true
		}
	}
	return ManifestItem{}, false
}
