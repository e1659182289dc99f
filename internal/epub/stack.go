package epub

import (
	"fmt"
	"strings"

	"github.com/yuanying/epubmeta/internal/xmlstream"
)

// defaultMaxDepth bounds the parse stack so pathologically nested documents
// are rejected instead of growing without limit.
const defaultMaxDepth = 64

// frame is one level of a parser's context: the state entered, the element
// that entered it and that element's depth, plus per-state scratch data.
type frame[S comparable] struct {
	state S
	tag   string
	depth int

	// child is the open element whose text is being collected, if any.
	child *xmlstream.Event
	text  []byte
	item  int // TOC entry owned by this frame
}

// collect starts gathering the text of ev.
func (f *frame[S]) collect(ev xmlstream.Event) {
	f.child = &ev
	f.text = f.text[:0]
}

// collecting reports whether ev is text directly inside the collected child.
func (f *frame[S]) collecting(ev xmlstream.Event) bool {
	return f.child != nil && ev.Kind == xmlstream.Text && ev.Depth == f.child.Depth+1
}

// finishes reports whether ev closes the collected child.
func (f *frame[S]) finishes(ev xmlstream.Event) bool {
	return f.child != nil && ev.Kind == xmlstream.ElementClose &&
		ev.Depth == f.child.Depth && ev.Name.Local == f.child.Name.Local
}

// take returns the collected child and its trimmed text and resets both.
func (f *frame[S]) take() (xmlstream.Event, string) {
	child := *f.child
	text := strings.TrimSpace(string(f.text))
	f.child = nil
	f.text = f.text[:0]
	return child, text
}

// parseStack is the explicit context stack shared by the OPF and NCX state
// machines. The bottom (root) state is implicit and never pushed.
type parseStack[S comparable] struct {
	root   S
	frames []frame[S]
	max    int
}

func newParseStack[S comparable](root S, max int) *parseStack[S] {
	if max <= 0 {
		max = defaultMaxDepth
	}
	return &parseStack[S]{root: root, max: max}
}

func (s *parseStack[S]) push(state S, tag string, depth int) (*frame[S], error) {
	if len(s.frames) >= s.max {
		return nil, fmt.Errorf("%w: nesting deeper than %d at <%s>", ErrXMLParse, s.max, tag)
	}
	s.frames = append(s.frames, frame[S]{state: state, tag: tag, depth: depth, item: -1})
	return &s.frames[len(s.frames)-1], nil
}

// state returns the current state, or the root state when nothing is pushed.
func (s *parseStack[S]) state() S {
	if len(s.frames) == 0 {
		return s.root
	}
	return s.frames[len(s.frames)-1].state
}

func (s *parseStack[S]) top() *frame[S] {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// find returns the innermost frame in the given state.
func (s *parseStack[S]) find(state S) *frame[S] {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].state == state {
			return &s.frames[i]
		}
	}
	return nil
}

// closes reports whether an end tag with the given name and depth matches
// the top frame.
func (s *parseStack[S]) closes(tag string, depth int) bool {
	top := s.top()
	return top != nil && top.tag == tag && top.depth == depth
}

func (s *parseStack[S]) pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}
