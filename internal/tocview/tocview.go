// Package tocview renders a parsed table of contents for people: an
// indented text tree or a nested HTML list.
package tocview

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuanying/epubmeta/internal/epub"
)

const defaultTitle = "Table of Contents"

// Text writes one line per entry, indented two spaces per level:
//
//	Part 1 (OEBPS/part1.xhtml)
//	  Chapter 1 (OEBPS/ch1.xhtml#start)
func Text(w io.Writer, toc *epub.TOC) error {
	var err error
	toc.Walk(func(_, depth int, item epub.TOCItem) bool {
		_, err = fmt.Fprintf(w, "%s%s%s\n", strings.Repeat("  ", depth), label(item), target(item))
		return err == nil
	})
	return err
}

// HTML returns the TOC as a <div id="toc"> holding nested <ul> lists.
// Entries link to their archive path. An empty TOC renders as "".
func HTML(toc *epub.TOC, title string) string {
	if toc.RootCount() == 0 {
		return ""
	}
	if title == "" {
		title = defaultTitle
	}

	var b strings.Builder
	b.WriteString(`<div id="toc">`)
	fmt.Fprintf(&b, "<h1>%s</h1>", html.EscapeString(title))
	writeEntries(&b, toc, toc.Roots())
	b.WriteString("</div>")
	return b.String()
}

func writeEntries(b *strings.Builder, toc *epub.TOC, indices []int) {
	b.WriteString("<ul>")
	for _, idx := range indices {
		item, ok := toc.Item(idx)
		if !ok {
			continue
		}
		b.WriteString("<li>")
		if href := linkHref(item); href != "" {
			fmt.Fprintf(b, `<a href="%s">%s</a>`, html.EscapeString(href), html.EscapeString(label(item)))
		} else {
			fmt.Fprintf(b, "<span>%s</span>", html.EscapeString(label(item)))
		}
		if children := toc.Children(idx); len(children) > 0 {
			writeEntries(b, toc, children)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
}

func label(item epub.TOCItem) string {
	if item.Title == "" {
		return "(untitled)"
	}
	return item.Title
}

// linkHref prefers the resolved archive path; external links keep their href.
func linkHref(item epub.TOCItem) string {
	if item.Path == "" {
		if strings.Contains(item.Href, "://") {
			return item.Href
		}
		return ""
	}
	if item.Fragment != "" {
		return item.Path + "#" + item.Fragment
	}
	return item.Path
}

func target(item epub.TOCItem) string {
	if href := linkHref(item); href != "" {
		return " (" + href + ")"
	}
	return ""
}
