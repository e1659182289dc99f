// Package xmlstream turns an XML byte buffer into a flat stream of parse
// events. It is a thin pull layer over encoding/xml running in recovery
// mode: unknown entities, unclosed HTML-ish tags and mismatched end tags are
// tolerated, and only hard failures (truncated input, illegal syntax) stop
// the stream.
package xmlstream

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

var (
	// ErrEmptyBuffer is returned by NewReader when there is nothing to parse.
	ErrEmptyBuffer = errors.New("xmlstream: empty buffer")

	// ErrNoRoot is returned by Next when the input ended without a single element.
	ErrNoRoot = errors.New("xmlstream: document has no root element")
)

// Kind identifies the type of an Event.
type Kind int

const (
	ElementOpen Kind = iota + 1
	ElementClose
	Text
	Comment
)

func (k Kind) String() string {
	switch k {
	case ElementOpen:
		return "element-open"
	case ElementClose:
		return "element-close"
	case Text:
		return "text"
	case Comment:
		return "comment"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is a single step of the stream.
//
// Depth follows the usual pull-reader convention: the root element is at
// depth 0, its children and its text at depth 1, and so on. An ElementClose
// carries the same depth as its ElementOpen.
type Event struct {
	Kind        Kind
	Name        xml.Name
	Depth       int
	SelfClosing bool
	Attrs       []xml.Attr
	Value       string
}

// Attr returns the value of the attribute whose local name is name.
// Namespace prefixes are ignored, so "opf:role" is found as "role".
func (e Event) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue is Attr without the presence flag.
func (e Event) AttrValue(name string) string {
	v, _ := e.Attr(name)
	return v
}

// Is reports whether the event is an element event with the given local name.
func (e Event) Is(kind Kind, local string) bool {
	return e.Kind == kind && e.Name.Local == local
}

// Reader yields Events from a buffer. A Reader is not safe for concurrent use.
type Reader struct {
	dec      *xml.Decoder
	depth    int
	elements int
	peeked   xml.Token
	pending  *Event
}

// NewReader prepares a Reader over data. A leading UTF-8 byte order mark is
// skipped and non UTF-8 encodings declared in the prolog are transcoded.
func NewReader(data []byte) (*Reader, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyBuffer
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	// Package documents carry non-empty <meta> and <link>, so HTML void
	// elements must not be auto-closed. Non-strict mode still recovers
	// unclosed tags when the parent's end tag arrives.
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	return &Reader{dec: dec}, nil
}

// Next returns the next event. At the end of a well-formed stream it returns
// io.EOF; any other error is terminal.
func (r *Reader) Next() (Event, error) {
	if r.pending != nil {
		ev := *r.pending
		r.pending = nil
		return ev, nil
	}

	for {
		tok, err := r.token()
		if err == io.EOF {
			if r.elements == 0 {
				return Event{}, ErrNoRoot
			}
			return Event{}, io.EOF
		}
		if err != nil {
			return Event{}, fmt.Errorf("xmlstream: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return r.open(t)
		case xml.EndElement:
			r.depth--
			return Event{Kind: ElementClose, Name: t.Name, Depth: r.depth}, nil
		case xml.CharData:
			if r.depth == 0 {
				// Whitespace and junk outside the root element.
				continue
			}
			return Event{Kind: Text, Depth: r.depth, Value: string(t)}, nil
		case xml.Comment:
			return Event{Kind: Comment, Depth: r.depth, Value: string(t)}, nil
		}
		// ProcInst and Directive carry nothing the parsers use.
	}
}

// Depth returns the nesting depth of the next element to be opened.
func (r *Reader) Depth() int {
	return r.depth
}

// open builds the ElementOpen event and detects self-closing tags. The
// decoder reports <a/> as a start and an end element; the end element is
// synthesized without consuming input, so an unchanged offset identifies it.
func (r *Reader) open(t xml.StartElement) (Event, error) {
	ev := Event{
		Kind:  ElementOpen,
		Name:  t.Name,
		Depth: r.depth,
		Attrs: t.Attr,
	}
	r.depth++
	r.elements++

	before := r.dec.InputOffset()
	next, err := r.token()
	if err != nil {
		if err == io.EOF {
			return ev, nil
		}
		return Event{}, fmt.Errorf("xmlstream: %w", err)
	}

	end, ok := next.(xml.EndElement)
	if ok && end.Name.Local == t.Name.Local && r.dec.InputOffset() == before {
		ev.SelfClosing = true
		r.depth--
		r.pending = &Event{Kind: ElementClose, Name: end.Name, Depth: r.depth}
		return ev, nil
	}

	r.peeked = next
	return ev, nil
}

func (r *Reader) token() (xml.Token, error) {
	if r.peeked != nil {
		tok := r.peeked
		r.peeked = nil
		return tok, nil
	}
	tok, err := r.dec.Token()
	if err != nil {
		return nil, err
	}
	return xml.CopyToken(tok), nil
}
