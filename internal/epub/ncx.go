package epub

import (
	"errors"
	"fmt"
	"io"

	"github.com/yuanying/epubmeta/internal/xmlstream"
)

type ncxState int

const (
	ncxRoot ncxState = iota
	ncxNavMap
	ncxNavPoint
	ncxNavLabel
)

func (s ncxState) String() string {
	switch s {
	case ncxRoot:
		return "root"
	case ncxNavMap:
		return "navMap"
	case ncxNavPoint:
		return "navPoint"
	case ncxNavLabel:
		return "navLabel"
	default:
		return fmt.Sprintf("ncxState(%d)", int(s))
	}
}

type ncxParser struct {
	toc   *TOC
	stack *parseStack[ncxState]
	dir   string // directory of the NCX inside the archive
}

// ParseNCX builds a TOC from an EPUB 2 navigation control document. ncxPath
// is the archive path of the document; content sources are resolved
// against its directory.
func ParseNCX(data []byte, ncxPath string, maxDepth int) (*TOC, error) {
	r, err := xmlstream.NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: ncx: %w", ErrXMLRead, err)
	}

	p := &ncxParser{
		toc:   newTOC(TOCSourceNCX),
		stack: newParseStack(ncxRoot, maxDepth),
		dir:   packageDir(ncxPath),
	}
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, xmlstream.ErrNoRoot) {
			return nil, fmt.Errorf("%w: ncx: %w", ErrXMLRead, err)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: ncx: %w", ErrXMLParse, err)
		}
		if err := p.handle(ev); err != nil {
			return nil, err
		}
	}
	return p.toc, nil
}

func (p *ncxParser) handle(ev xmlstream.Event) error {
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

func (p *ncxParser) open(ev xmlstream.Event) error {
	switch p.stack.state() {
	case ncxRoot:
		if ev.Name.Local == "navMap" && !ev.SelfClosing {
			_, err := p.stack.push(ncxNavMap, ev.Name.Local, ev.Depth)
			return err
		}

	case ncxNavMap, ncxNavPoint:
		switch ev.Name.Local {
		case "navPoint":
			parent := -1
			if f := p.stack.find(ncxNavPoint); f != nil {
				parent = f.item
			}
			idx := p.toc.add(parent, "", "", "", "")
			if ev.SelfClosing {
				return nil
			}
			f, err := p.stack.push(ncxNavPoint, ev.Name.Local, ev.Depth)
			if err != nil {
				return err
			}
			f.item = idx
		case "navLabel":
			f := p.stack.top()
			if f.state != ncxNavPoint || ev.SelfClosing {
				return nil
			}
			label, err := p.stack.push(ncxNavLabel, ev.Name.Local, ev.Depth)
			if err != nil {
				return err
			}
			label.item = f.item
		case "content":
			if f := p.stack.top(); f.state == ncxNavPoint {
				p.setTarget(f.item, ev.AttrValue("src"))
			}
		}

	case ncxNavLabel:
		if ev.Name.Local == "text" {
			p.stack.top().collect(ev)
		}
	}
	return nil
}

func (p *ncxParser) close(ev xmlstream.Event) {
	top := p.stack.top()
	if top == nil {
		return
	}
	if top.finishes(ev) {
		_, text := top.take()
		// Only the first label of a point names it.
		if item, ok := p.toc.Item(top.item); ok && item.Title == "" {
			p.toc.setTitle(top.item, collapseSpace(text))
		}
		return
	}
	if p.stack.closes(ev.Name.Local, ev.Depth) {
		p.stack.pop()
	}
}

func (p *ncxParser) setTarget(idx int, src string) {
	if idx < 0 || src == "" {
		return
	}
	_, fragment := splitFragment(src)
	target := ""
	if !isExternal(src) {
		if resolved, err := resolveArchivePath(p.dir, src); err == nil {
			target = resolved
		}
	}
	p.toc.setTarget(idx, src, target, fragment)
}
