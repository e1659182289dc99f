package epub

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

const containerPath = "META-INF/container.xml"

// parseContainer extracts the package document path from container.xml.
// The first <rootfile> is the default rendition; it must carry full-path.
func parseContainer(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrXMLRead, containerPath)
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrXMLParse, containerPath, err)
	}

	rf := doc.FindElement("//rootfile")
	if rf == nil {
		return "", fmt.Errorf("%w: %s has no rootfile", ErrElementNotFound, containerPath)
	}
	attr := rf.SelectAttr("full-path")
	if attr == nil || strings.TrimSpace(attr.Value) == "" {
		return "", fmt.Errorf("%w: rootfile without full-path", ErrDocumentInvalid)
	}
	return normalizePath(strings.TrimSpace(attr.Value)), nil
}
