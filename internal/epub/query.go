package epub

import (
	"fmt"
)

// Metadata returns an independent copy of the package metadata.
func (d *Document) Metadata() Metadata {
	return d.pkg.Metadata.clone()
}

// Title returns dc:title, or "" when the package has none.
func (d *Document) Title() string {
	return d.pkg.Metadata.Title
}

// Identifier returns the dc:identifier named by package/@unique-identifier.
func (d *Document) Identifier() string {
	return d.pkg.Metadata.Identifier
}

// Language returns dc:language.
func (d *Document) Language() string {
	return d.pkg.Metadata.Language
}

// Version returns the declared EPUB major version.
func (d *Document) Version() Version {
	return d.pkg.Metadata.Version
}

// Manifest returns the manifest. Callers must not modify it.
func (d *Document) Manifest() *Manifest {
	return d.pkg.Manifest
}

// Spine returns the spine. Callers must not modify it.
func (d *Document) Spine() *Spine {
	return d.pkg.Spine
}

// Guide returns the EPUB 2 guide references.
func (d *Document) Guide() []GuideReference {
	return append([]GuideReference(nil), d.pkg.Guide...)
}

// TOC returns the table of contents, or nil when no navigation document was
// parsed. A nil *TOC answers every accessor with zero values.
func (d *Document) TOC() *TOC {
	return d.toc
}

// MemberCount returns the number of members in the attached archive.
func (d *Document) MemberCount() int {
	return d.memberCount
}

// RootFile returns the package document path found during Bootstrap.
func (d *Document) RootFile() string {
	return d.rootFile
}

// ResolveHref turns an href from the package document into an archive path.
func (d *Document) ResolveHref(href string) (string, error) {
	return resolveArchivePath(d.packageDir(), href)
}

// CoverImageItem returns the manifest item of the cover image.
func (d *Document) CoverImageItem() (ManifestItem, bool) {
	id := d.pkg.Metadata.CoverImageItemID
	if id == "" {
		return ManifestItem{}, false
	}
	return d.pkg.Manifest.Lookup(id)
}

// CoverImagePath returns the archive path of the cover image.
func (d *Document) CoverImagePath() (string, error) {
	item, ok := d.CoverImageItem()
	if !ok {
		return "", fmt.Errorf("%w: no cover image", ErrFileNotFound)
	}
	return d.ResolveHref(item.Href)
}

// CoverImage returns the bytes of the cover image.
func (d *Document) CoverImage() ([]byte, error) {
	if err := d.requireArchive(); err != nil {
		return nil, err
	}
	p, err := d.CoverImagePath()
	if err != nil {
		return nil, err
	}
	return d.archive.ReadMember(p)
}

// SequentialResourceCount returns the number of linear spine items.
func (d *Document) SequentialResourceCount() int {
	return d.pkg.Spine.LinearCount()
}

// SequentialResources returns the manifest hrefs of the linear spine items
// in reading order. Items whose idref did not resolve contribute "".
func (d *Document) SequentialResources() []string {
	out := make([]string, d.SequentialResourceCount())
	n, _ := d.CopySequentialResourcePaths(out)
	return out[:n]
}

// CopySequentialResourcePaths fills dst with the hrefs of the linear spine
// items and returns how many were written. dst must hold at least
// SequentialResourceCount entries.
func (d *Document) CopySequentialResourcePaths(dst []string) (int, error) {
	count := d.SequentialResourceCount()
	if len(dst) < count {
		return 0, fmt.Errorf("%w: buffer holds %d paths, need %d", ErrInvalidArgument, len(dst), count)
	}
	n := 0
	for _, it := range d.pkg.Spine.items {
		if !it.Linear {
			continue
		}
		item, _ := d.pkg.Manifest.Item(it.Item)
		dst[n] = item.Href
		n++
	}
	return n, nil
}

// ExtractTo writes every archive member below dir. It fails unless every
// member was written.
func (d *Document) ExtractTo(dir string) error {
	if err := d.requireArchive(); err != nil {
		return err
	}
	written, err := d.archive.ExtractAll(dir)
	if err != nil {
		return fmt.Errorf("extract %s: %w", d.path, err)
	}
	if written != d.memberCount {
		return fmt.Errorf("%w: extracted %d of %d members", ErrUnknown, written, d.memberCount)
	}
	d.log.Debug("archive extracted", "dir", dir, "members", written)
	return nil
}

// ReadFile returns the bytes of an archive member.
func (d *Document) ReadFile(name string) ([]byte, error) {
	if err := d.requireArchive(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty member name", ErrInvalidArgument)
	}
	return d.archive.ReadMember(name)
}

// UncompressedSize returns the declared size of an archive member.
func (d *Document) UncompressedSize(name string) (uint64, error) {
	if err := d.requireArchive(); err != nil {
		return 0, err
	}
	return d.archive.UncompressedSize(name)
}

// MetaContent returns the value of <meta name=...> or <meta property=...>.
func (d *Document) MetaContent(name string) (string, bool) {
	v, ok := d.pkg.Metadata.Metas[name]
	return v, ok
}

// MetaPath treats the named meta value as a manifest id and returns the
// archive path of that item.
func (d *Document) MetaPath(name string) (string, error) {
	id, ok := d.MetaContent(name)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: meta %q", ErrElementNotFound, name)
	}
	item, ok := d.pkg.Manifest.Lookup(id)
	if !ok {
		return "", fmt.Errorf("%w: manifest item %q", ErrFileNotFound, id)
	}
	return d.ResolveHref(item.Href)
}

// ItemPath returns the archive path of the manifest item with the given id.
func (d *Document) ItemPath(id string) (string, error) {
	item, ok := d.pkg.Manifest.Lookup(id)
	if !ok {
		return "", fmt.Errorf("%w: manifest item %q", ErrFileNotFound, id)
	}
	return d.ResolveHref(item.Href)
}
