package epub

import (
	"path"
	"strings"
)

// CoverInfo names the manifest item chosen as the cover and the rule that
// chose it.
type CoverInfo struct {
	ManifestID string
	Href       string
	MediaType  string
	Source     string // properties, meta, guide or filename
}

// DetectCover picks the cover image item. The first rule that matches wins:
// the EPUB 3 cover-image property, the EPUB 2 <meta name="cover"> (as an id,
// then as an href), a guide reference of type "cover" that points at an
// image, and finally an image whose file name contains "cover". It returns
// nil when nothing matches.
func (p *Package) DetectCover() *CoverInfo {
	items := p.Manifest.Items()

	for _, item := range items {
		if item.HasProperty("cover-image") {
			return coverInfo(item, "properties")
		}
	}

	if id := p.Metadata.Metas["cover"]; id != "" {
		if item, ok := p.Manifest.Lookup(id); ok {
			return coverInfo(item, "meta")
		}
		// Some producers put the image path in content instead of the id.
		if item, ok := p.Manifest.itemByHref(id); ok && isImageMediaType(item.MediaType) {
			return coverInfo(item, "meta")
		}
	}

	for _, ref := range p.Guide {
		if ref.Type != "cover" {
			continue
		}
		if item, ok := p.Manifest.itemByHref(ref.Href); ok && isImageMediaType(item.MediaType) {
			return coverInfo(item, "guide")
		}
	}

	for _, item := range items {
		if !isImageMediaType(item.MediaType) {
			continue
		}
		if strings.Contains(strings.ToLower(path.Base(item.Href)), "cover") {
			return coverInfo(item, "filename")
		}
	}

	return nil
}

func coverInfo(item ManifestItem, method string) *CoverInfo {
	return &CoverInfo{ManifestID: item.ID, Href: item.Href, MediaType: item.MediaType, Source: method}
}

// isImageMediaType reports raster images; SVG covers cannot be thumbnailed.
func isImageMediaType(mediaType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	return strings.HasPrefix(mt, "image/") && mt != "image/svg+xml"
}
