package epub

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yuanying/epubmeta/internal/xmlstream"
)

const ncxMediaType = "application/x-dtbncx+xml"

// Package holds the aggregates populated from a package (OPF) document.
type Package struct {
	Metadata Metadata
	Manifest *Manifest
	Spine    *Spine
	Guide    []GuideReference
}

// NewPackage returns a Package with empty aggregates, ready for ParseOPF.
func NewPackage() *Package {
	return &Package{
		Metadata: newMetadata(),
		Manifest: NewManifest(),
		Spine:    NewSpine(),
	}
}

type opfState int

const (
	opfRoot opfState = iota
	opfMetadata
	opfManifest
	opfSpine
	opfGuide
)

func (s opfState) String() string {
	switch s {
	case opfRoot:
		return "root"
	case opfMetadata:
		return "metadata"
	case opfManifest:
		return "manifest"
	case opfSpine:
		return "spine"
	case opfGuide:
		return "guide"
	default:
		return fmt.Sprintf("opfState(%d)", int(s))
	}
}

type opfParser struct {
	pkg   *Package
	stack *parseStack[opfState]

	// creators maps a dc:creator id to its index, for EPUB 3 role refinements.
	creators map[string]int
}

// ParseOPF runs the package document in data through the OPF state machine
// and populates pkg. It is permissive about content: unknown elements are
// skipped and missing title, identifier or language are left empty. It is
// strict about structure: input that is not XML fails with ErrXMLRead, a
// well-formedness failure mid-stream with ErrXMLParse.
func ParseOPF(data []byte, pkg *Package, maxDepth int) error {
	if pkg == nil || pkg.Manifest == nil || pkg.Spine == nil {
		return fmt.Errorf("%w: package aggregates not initialized", ErrInvalidArgument)
	}
	if pkg.Metadata.Metas == nil {
		pkg.Metadata.Metas = make(map[string]string)
	}

	r, err := xmlstream.NewReader(data)
	if err != nil {
		return fmt.Errorf("%w: package document: %w", ErrXMLRead, err)
	}

	p := &opfParser{
		pkg:      pkg,
		stack:    newParseStack(opfRoot, maxDepth),
		creators: make(map[string]int),
	}
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, xmlstream.ErrNoRoot) {
			return fmt.Errorf("%w: package document: %w", ErrXMLRead, err)
		}
		if err != nil {
			return fmt.Errorf("%w: package document: %w", ErrXMLParse, err)
		}
		if err := p.handle(ev); err != nil {
			return err
		}
	}
	p.finish()
	return nil
}

func (p *opfParser) handle(ev xmlstream.Event) error {
	switch ev.Kind {
	case xmlstream.ElementOpen:
		return p.open(ev)
	case xmlstream.Text:
		if top := p.stack.top(); top != nil && top.collecting(ev) {
			top.text = append(top.text, ev.Value...)
		}
	case xmlstream.ElementClose:
		p.close(ev)
	}
	return nil
}

func (p *opfParser) open(ev xmlstream.Event) error {
	md := &p.pkg.Metadata

	switch p.stack.state() {
	case opfRoot:
		switch ev.Name.Local {
		case "package":
			md.UniqueIdentifier = ev.AttrValue("unique-identifier")
			md.Version = parseVersion(strings.TrimSpace(ev.AttrValue("version")))
		case "metadata":
			return p.enter(opfMetadata, ev)
		case "manifest":
			return p.enter(opfManifest, ev)
		case "spine":
			p.pkg.Spine.Toc = ev.AttrValue("toc")
			p.pkg.Spine.PageProgressionDirection = ev.AttrValue("page-progression-direction")
			return p.enter(opfSpine, ev)
		case "guide":
			return p.enter(opfGuide, ev)
		}

	case opfMetadata:
		p.metadataOpen(ev)

	case opfManifest:
		if ev.Name.Local == "item" {
			p.manifestItem(ev)
		}

	case opfSpine:
		if ev.Name.Local == "itemref" {
			p.spineItem(ev)
		}

	case opfGuide:
		if ev.Name.Local == "reference" {
			p.pkg.Guide = append(p.pkg.Guide, GuideReference{
				Type:  ev.AttrValue("type"),
				Title: ev.AttrValue("title"),
				Href:  ev.AttrValue("href"),
			})
		}
	}
	return nil
}

// enter pushes state for a container element. Self-closing containers have
// no children and leave the state unchanged.
func (p *opfParser) enter(state opfState, ev xmlstream.Event) error {
	if ev.SelfClosing {
		return nil
	}
	_, err := p.stack.push(state, ev.Name.Local, ev.Depth)
	return err
}

func (p *opfParser) close(ev xmlstream.Event) {
	top := p.stack.top()
	if top == nil {
		return
	}
	if top.finishes(ev) {
		child, text := top.take()
		p.metadataClose(child, text)
		return
	}
	if p.stack.closes(ev.Name.Local, ev.Depth) {
		p.stack.pop()
	}
}

func (p *opfParser) metadataOpen(ev xmlstream.Event) {
	top := p.stack.top()
	switch ev.Name.Local {
	case "title", "identifier", "language", "creator", "publisher",
		"date", "description", "subject", "rights":
		top.collect(ev)
	case "meta":
		// EPUB 2: <meta name="cover" content="item-id"/>
		if name, ok := ev.Attr("name"); ok {
			p.setMeta(name, strings.TrimSpace(ev.AttrValue("content")))
			return
		}
		// EPUB 3: <meta property="dcterms:modified">2024-01-01</meta>
		if _, ok := ev.Attr("property"); ok {
			top.collect(ev)
		}
	}
}

func (p *opfParser) metadataClose(child xmlstream.Event, text string) {
	md := &p.pkg.Metadata

	switch child.Name.Local {
	case "title":
		if text != "" {
			md.Title = text
		}
	case "identifier":
		id, ok := child.Attr("id")
		if ok && id != "" && id == md.UniqueIdentifier {
			md.Identifier = text
		}
	case "language":
		if text != "" {
			md.Language = text
		}
	case "creator":
		if text == "" {
			return
		}
		md.Creators = append(md.Creators, Creator{Name: text, Role: child.AttrValue("role")})
		if id := child.AttrValue("id"); id != "" {
			p.creators["#"+id] = len(md.Creators) - 1
		}
	case "publisher":
		setFirst(&md.Publisher, text)
	case "date":
		setFirst(&md.Date, text)
	case "description":
		setFirst(&md.Description, text)
	case "rights":
		setFirst(&md.Rights, text)
	case "subject":
		if text != "" {
			md.Subjects = append(md.Subjects, text)
		}
	case "meta":
		property := child.AttrValue("property")
		if refines := child.AttrValue("refines"); refines != "" {
			if idx, ok := p.creators[refines]; ok && property == "role" {
				md.Creators[idx].Role = text
			}
			return
		}
		p.setMeta(property, text)
	}
}

// setMeta records a name/value pair; the first occurrence wins.
func (p *opfParser) setMeta(name, value string) {
	if name == "" {
		return
	}
	if _, ok := p.pkg.Metadata.Metas[name]; !ok {
		p.pkg.Metadata.Metas[name] = value
	}
}

func setFirst(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func (p *opfParser) manifestItem(ev xmlstream.Event) {
	md := &p.pkg.Metadata
	item := ManifestItem{
		ID:              ev.AttrValue("id"),
		Href:            ev.AttrValue("href"),
		MediaType:       strings.TrimSpace(ev.AttrValue("media-type")),
		RequiredModules: ev.AttrValue("required-modules"),
		Fallback:        ev.AttrValue("fallback"),
	}
	if props := strings.Fields(ev.AttrValue("properties")); len(props) > 0 {
		item.Properties = props
	}
	ref := p.pkg.Manifest.Insert(item)

	if item.HasProperty("cover-image") {
		md.CoverImageItemID = item.ID
	}
	// EPUB 3 readers ignore the legacy NCX.
	if item.MediaType == ncxMediaType && md.Version != Version3 {
		md.NCXItem = ref
	}
}

func (p *opfParser) spineItem(ev xmlstream.Event) {
	idref := ev.AttrValue("idref")
	item := SpineItem{
		IDRef:  idref,
		Linear: strings.TrimSpace(ev.AttrValue("linear")) != "no",
		Item:   NoItem,
	}
	if idref != "" {
		if ref, ok := p.pkg.Manifest.Ref(idref); ok {
			item.Item = ref
		}
	}
	p.pkg.Spine.Append(item)
}

// finish runs the cross-table fixups that need the whole document.
func (p *opfParser) finish() {
	md := &p.pkg.Metadata

	p.pkg.Spine.resolve(p.pkg.Manifest)

	// spine/@toc names the NCX explicitly; honor it over media-type sniffing.
	if md.Version != Version3 && p.pkg.Spine.Toc != "" {
		if ref, ok := p.pkg.Manifest.Ref(p.pkg.Spine.Toc); ok {
			md.NCXItem = ref
		}
	}

	if md.CoverImageItemID == "" {
		if c := p.pkg.DetectCover(); c != nil {
			md.CoverImageItemID = c.ManifestID
		}
	}
}
