package epub

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParseNav builds a TOC from an EPUB 3 navigation document. navPath is the
// archive path of the document; link targets are resolved against its
// directory. The first <nav> whose epub:type lists "toc" is used, or the
// first <nav> at all when none is typed.
func ParseNav(data []byte, navPath string, maxDepth int) (*TOC, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: nav document: %w", ErrXMLRead, err)
	}
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	navs := doc.Find("nav")
	if navs.Length() == 0 {
		return nil, fmt.Errorf("%w: nav document has no <nav>", ErrElementNotFound)
	}
	nav := navs.First()
	navs.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if hasToken(s.AttrOr("epub:type", ""), "toc") {
			nav = s
			return false
		}
		return true
	})

	toc := newTOC(TOCSourceNav)
	dir := packageDir(navPath)
	if err := addNavList(toc, nav.ChildrenFiltered("ol").First(), -1, dir, 0, maxDepth); err != nil {
		return nil, err
	}
	return toc, nil
}

func addNavList(toc *TOC, ol *goquery.Selection, parent int, dir string, depth, maxDepth int) error {
	if ol.Length() == 0 {
		return nil
	}
	if depth >= maxDepth {
		return fmt.Errorf("%w: nav list nesting deeper than %d", ErrXMLParse, maxDepth)
	}

	var err error
	ol.ChildrenFiltered("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		title, href := navEntry(li)
		idx := toc.add(parent, title, "", "", "")
		if href != "" {
			_, fragment := splitFragment(href)
			target := ""
			if !isExternal(href) {
				if resolved, rerr := resolveArchivePath(dir, href); rerr == nil {
					target = resolved
				}
			}
			toc.setTarget(idx, href, target, fragment)
		}
		err = addNavList(toc, li.ChildrenFiltered("ol").First(), idx, dir, depth+1, maxDepth)
		return err == nil
	})
	return err
}

// navEntry extracts the label and link of a list item. The link may be
// wrapped (<span><a/></span>); an item without a link is labeled by its
// own text ahead of any nested list.
func navEntry(li *goquery.Selection) (title, href string) {
	a := li.ChildrenFiltered("a").First()
	if a.Length() == 0 {
		a = li.ChildrenFiltered("span").First().Find("a").First()
	}
	if a.Length() > 0 {
		return collapseSpace(a.Text()), a.AttrOr("href", "")
	}

	var sb strings.Builder
	for _, n := range li.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "ol" {
				break
			}
			sb.WriteString(goquery.NewDocumentFromNode(c).Text())
		}
	}
	return collapseSpace(sb.String()), ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
