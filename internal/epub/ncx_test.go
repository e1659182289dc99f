package epub

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitFragment(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		wantPath     string
		wantFragment string
	}{
		{
			name:         "path with fragment",
			src:          "chapter1.xhtml#sec1",
			wantPath:     "chapter1.xhtml",
			wantFragment: "sec1",
		},
		{
			name:         "path without fragment",
			src:          "chapter1.xhtml",
			wantPath:     "chapter1.xhtml",
			wantFragment: "",
		},
		{
			name:         "fragment only",
			src:          "#sec1",
			wantPath:     "",
			wantFragment: "sec1",
		},
		{
			name:         "empty string",
			src:          "",
			wantPath:     "",
			wantFragment: "",
		},
		{
			name:         "multiple hash signs",
			src:          "chapter1.xhtml#sec1#subsec2",
			wantPath:     "chapter1.xhtml",
			wantFragment: "sec1#subsec2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPath, gotFragment := splitFragment(tt.src)
			if gotPath != tt.wantPath {
				t.Errorf("splitFragment(%q) path = %q, want %q", tt.src, gotPath, tt.wantPath)
			}
			if gotFragment != tt.wantFragment {
				t.Errorf("splitFragment(%q) fragment = %q, want %q", tt.src, gotFragment, tt.wantFragment)
			}
		})
	}
}

// tocShape renders a TOC as "depth:title>path#fragment" lines for comparison.
func tocShape(toc *TOC) []string {
	var out []string
	toc.Walk(func(_, depth int, item TOCItem) bool {
		line := fmt.Sprintf("%d:%s>%s", depth, item.Title, item.Path)
		if item.Fragment != "" {
			line += "#" + item.Fragment
		}
		out = append(out, line)
		return true
	})
	return out
}

func TestParseNCX_Nested(t *testing.T) {
	ncx := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE ncx PUBLIC "-//NISO//DTD ncx 2005-1//EN" "http://www.daisy.org/z3986/2005/ncx-2005-1.dtd">
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="urn:uuid:1234"/>
    <meta name="dtb:depth" content="2"/>
  </head>
  <docTitle><text>Test Book</text></docTitle>
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>Part 1</text></navLabel>
      <content src="text/part1.xhtml"/>
      <navPoint id="np2" playOrder="2">
        <navLabel><text>Chapter 1</text></navLabel>
        <content src="text/ch1.xhtml#start"/>
      </navPoint>
      <navPoint id="np3" playOrder="3">
        <navLabel>
          <text>  Chapter
            2 </text>
        </navLabel>
        <content src="../OEBPS/text/ch2.xhtml"/>
      </navPoint>
    </navPoint>
    <navPoint id="np4" playOrder="4">
      <navLabel><text>Part 2</text></navLabel>
      <content src="text/part2.xhtml"/>
    </navPoint>
  </navMap>
  <pageList>
    <pageTarget id="p1" type="normal" value="1">
      <navLabel><text>1</text></navLabel>
      <content src="text/ch1.xhtml#p1"/>
    </pageTarget>
  </pageList>
</ncx>`)

	toc, err := ParseNCX(ncx, "OEBPS/toc.ncx", 0)
	if err != nil {
		t.Fatalf("ParseNCX() error = %v", err)
	}
	if toc.Source != TOCSourceNCX {
		t.Errorf("Source = %q, want ncx", toc.Source)
	}

	want := []string{
		"0:Part 1>OEBPS/text/part1.xhtml",
		"1:Chapter 1>OEBPS/text/ch1.xhtml#start",
		"1:Chapter 2>OEBPS/text/ch2.xhtml",
		"0:Part 2>OEBPS/text/part2.xhtml",
	}
	if diff := cmp.Diff(want, tocShape(toc)); diff != "" {
		t.Errorf("toc mismatch (-want +got):\n%s", diff)
	}

	if toc.RootCount() != 2 {
		t.Fatalf("RootCount() = %d, want 2", toc.RootCount())
	}
	part1 := toc.Roots()[0]
	if toc.HasParent(part1) {
		t.Error("root entry reports a parent")
	}
	if toc.ChildCount(part1) != 2 {
		t.Fatalf("ChildCount(part1) = %d, want 2", toc.ChildCount(part1))
	}
	ch1 := toc.Children(part1)[0]
	if parent, ok := toc.Parent(ch1); !ok || parent != part1 {
		t.Errorf("Parent(ch1) = %d, %v, want %d", parent, ok, part1)
	}
	if item, _ := toc.Item(ch1); item.Href != "text/ch1.xhtml#start" {
		t.Errorf("Href = %q, want the original src", item.Href)
	}
}

func TestParseNCX_RootsInDocumentOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<ncx><navMap>`)
	for i := 1; i <= 35; i++ {
		fmt.Fprintf(&b, `<navPoint id="n%d"><navLabel><text>Item %d</text></navLabel><content src="c%d.xhtml"/></navPoint>`, i, i, i)
	}
	b.WriteString(`</navMap></ncx>`)

	toc, err := ParseNCX([]byte(b.String()), "toc.ncx", 0)
	if err != nil {
		t.Fatalf("ParseNCX() error = %v", err)
	}
	if toc.RootCount() != 35 {
		t.Fatalf("RootCount() = %d, want 35", toc.RootCount())
	}
	for i, idx := range toc.Roots() {
		item, _ := toc.Item(idx)
		if want := fmt.Sprintf("Item %d", i+1); item.Title != want {
			t.Errorf("root %d title = %q, want %q", i, item.Title, want)
		}
		if want := fmt.Sprintf("c%d.xhtml", i+1); item.Path != want {
			t.Errorf("root %d path = %q, want %q", i, item.Path, want)
		}
	}
}

func TestParseNCX_Edges(t *testing.T) {
	tests := []struct {
		name string
		ncx  string
		want []string
	}{
		{
			name: "navPoint outside navMap ignored",
			ncx:  `<ncx><navList><navPoint><navLabel><text>x</text></navLabel></navPoint></navList><navMap/></ncx>`,
			want: nil,
		},
		{
			name: "first label wins",
			ncx:  `<ncx><navMap><navPoint><navLabel><text>A</text></navLabel><navLabel><text>B</text></navLabel><content src="a.xhtml"/></navPoint></navMap></ncx>`,
			want: []string{"0:A>a.xhtml"},
		},
		{
			name: "self-closing navPoint",
			ncx:  `<ncx><navMap><navPoint id="x"/></navMap></ncx>`,
			want: []string{"0:>"},
		},
		{
			name: "external and escaping sources keep no path",
			ncx:  `<ncx><navMap><navPoint><navLabel><text>Web</text></navLabel><content src="http://example.com/"/></navPoint><navPoint><navLabel><text>Out</text></navLabel><content src="../../etc/passwd"/></navPoint></navMap></ncx>`,
			want: []string{"0:Web>", "0:Out>"},
		},
		{
			name: "escaped source",
			ncx:  `<ncx><navMap><navPoint><navLabel><text>Sp</text></navLabel><content src="My%20Chapter.xhtml"/></navPoint></navMap></ncx>`,
			want: []string{"0:Sp>My Chapter.xhtml"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toc, err := ParseNCX([]byte(tt.ncx), "toc.ncx", 0)
			if err != nil {
				t.Fatalf("ParseNCX() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, tocShape(toc)); diff != "" {
				t.Errorf("toc mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseNCX_DepthLimit(t *testing.T) {
	const levels = 10
	ncx := "<ncx><navMap>" + strings.Repeat("<navPoint>", levels) + strings.Repeat("</navPoint>", levels) + "</navMap></ncx>"

	if _, err := ParseNCX([]byte(ncx), "toc.ncx", 0); err != nil {
		t.Fatalf("ParseNCX() with default depth error = %v", err)
	}
	if _, err := ParseNCX([]byte(ncx), "toc.ncx", 5); !errors.Is(err, ErrXMLParse) {
		t.Errorf("ParseNCX() depth 5 error = %v, want ErrXMLParse", err)
	}
}

func TestParseNCX_Errors(t *testing.T) {
	if _, err := ParseNCX(nil, "toc.ncx", 0); !errors.Is(err, ErrXMLRead) {
		t.Errorf("ParseNCX(nil) error = %v, want ErrXMLRead", err)
	}
	if _, err := ParseNCX([]byte(`<ncx><navMap><navPoint>`), "toc.ncx", 0); !errors.Is(err, ErrXMLParse) {
		t.Errorf("ParseNCX(truncated) error = %v, want ErrXMLParse", err)
	}
}

func TestTOC_NilAccessors(t *testing.T) {
	var toc *TOC
	if toc.RootCount() != 0 || toc.Len() != 0 || toc.Roots() != nil || toc.ChildCount(0) != 0 {
		t.Error("nil TOC is not empty")
	}
	if _, ok := toc.Item(0); ok {
		t.Error("nil TOC Item(0) found an entry")
	}
	if toc.HasParent(0) {
		t.Error("nil TOC HasParent(0) = true")
	}
}
