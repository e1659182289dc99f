package xmlstream

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// collect drains r into "kind name@depth" lines; text and comments show
// their value instead of a name.
func collect(t *testing.T, data string) ([]string, error) {
	t.Helper()
	r, err := NewReader([]byte(data))
	if err != nil {
		return nil, err
	}
	var out []string
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		switch ev.Kind {
		case Text, Comment:
			out = append(out, fmt.Sprintf("%s %q@%d", ev.Kind, ev.Value, ev.Depth))
		default:
			line := fmt.Sprintf("%s %s@%d", ev.Kind, ev.Name.Local, ev.Depth)
			if ev.SelfClosing {
				line += "/"
			}
			out = append(out, line)
		}
	}
}

func TestReader_Events(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want []string
	}{
		{
			name: "depth and self-closing",
			xml:  `<?xml version="1.0"?><a x="1"><b/>t<!--c--><c></c></a>` + "\n",
			want: []string{
				"element-open a@0",
				"element-open b@1/",
				"element-close b@1",
				`text "t"@1`,
				`comment "c"@1`,
				"element-open c@1",
				"element-close c@1",
				"element-close a@0",
			},
		},
		{
			name: "text outside root is dropped",
			xml:  "junk<r>x</r>\n\n",
			want: []string{"element-open r@0", `text "x"@1`, "element-close r@0"},
		},
		{
			name: "html entities and unknown entities",
			xml:  `<r>a&nbsp;b &bogus; c</r>`,
			want: []string{"element-open r@0", `text "a\u00a0b &bogus; c"@1`, "element-close r@0"},
		},
		{
			name: "mismatched end tag recovered",
			xml:  `<a><b></a>`,
			want: []string{"element-open a@0", "element-open b@1", "element-close b@1", "element-close a@0"},
		},
		{
			name: "unclosed element closed by parent end tag",
			xml:  `<p>x<br></p>`,
			want: []string{"element-open p@0", `text "x"@1`, "element-open br@1", "element-close br@1", "element-close p@0"},
		},
		{
			name: "meta and link with content",
			xml: `<metadata><meta property="dcterms:modified">2020-01-01T00:00:00Z</meta>` +
				`<link rel="record" href="r.xml"></link><meta name="cover" content="c"/></metadata>`,
			want: []string{
				"element-open metadata@0",
				"element-open meta@1",
				`text "2020-01-01T00:00:00Z"@2`,
				"element-close meta@1",
				"element-open link@1",
				"element-close link@1",
				"element-open meta@1/",
				"element-close meta@1",
				"element-close metadata@0",
			},
		},
		{
			name: "byte order mark",
			xml:  "\xEF\xBB\xBF<r/>",
			want: []string{"element-open r@0/", "element-close r@0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collect(t, tt.xml)
			if err != nil {
				t.Fatalf("collect() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReader_Attributes(t *testing.T) {
	r, err := NewReader([]byte(`<dc:creator xmlns:dc="d" xmlns:opf="o" opf:role="aut" id="c1">x</dc:creator>`))
	if err != nil {
		t.Fatal(err)
	}
	ev, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if !ev.Is(ElementOpen, "creator") {
		t.Fatalf("first event = %+v, want creator open", ev)
	}
	if v, ok := ev.Attr("role"); !ok || v != "aut" {
		t.Errorf("Attr(role) = %q, %v", v, ok)
	}
	if ev.AttrValue("id") != "c1" {
		t.Errorf("AttrValue(id) = %q", ev.AttrValue("id"))
	}
	if _, ok := ev.Attr("missing"); ok {
		t.Error("Attr(missing) found a value")
	}
	if ev.Is(ElementClose, "creator") {
		t.Error("Is() ignores the kind")
	}
	if r.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", r.Depth())
	}
}

func TestReader_Charset(t *testing.T) {
	got, err := collect(t, "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><r>Caf\xe9</r>")
	if err != nil {
		t.Fatalf("collect() error = %v", err)
	}
	if diff := cmp.Diff([]string{"element-open r@0", `text "Café"@1`, "element-close r@0"}, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestReader_Errors(t *testing.T) {
	if _, err := NewReader(nil); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("NewReader(nil) error = %v, want ErrEmptyBuffer", err)
	}
	if _, err := NewReader([]byte(" \n\t")); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("NewReader(whitespace) error = %v, want ErrEmptyBuffer", err)
	}
	if _, err := collect(t, "just some text"); !errors.Is(err, ErrNoRoot) {
		t.Errorf("text only error = %v, want ErrNoRoot", err)
	}

	for _, data := range []string{`<a><b>`, `<a x="1></a>`, `<a><</a>`} {
		_, err := collect(t, data)
		var syntax *xml.SyntaxError
		if !errors.As(err, &syntax) {
			t.Errorf("collect(%q) error = %v, want *xml.SyntaxError", data, err)
		}
	}
}

func TestKind_String(t *testing.T) {
	if ElementOpen.String() != "element-open" || Kind(99).String() != "Kind(99)" {
		t.Errorf("Kind.String() = %q, %q", ElementOpen.String(), Kind(99).String())
	}
}
