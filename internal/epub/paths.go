package epub

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// normalizePath normalizes archive member names (removes ./ prefix)
func normalizePath(p string) string {
	return strings.TrimPrefix(p, "./")
}

// packageDir returns the directory of an archive member, "" for the root.
func packageDir(memberPath string) string {
	dir := path.Dir(memberPath)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (p, fragment string) {
	p, fragment, _ = strings.Cut(src, "#")
	return p, fragment
}

func stripFragment(href string) string {
	p, _ := splitFragment(href)
	return p
}

// isExternal reports whether href carries a URL scheme (http:, mailto:...).
func isExternal(href string) bool {
	u, err := url.Parse(href)
	return err == nil && u.Scheme != ""
}

// resolveArchivePath resolves href against baseDir, both archive-internal
// and slash separated. A leading "/" means the archive root. The result is
// cleaned; a path that climbs out of the archive is rejected.
func resolveArchivePath(baseDir, href string) (string, error) {
	href = strings.TrimSpace(stripFragment(href))
	if href == "" {
		return "", fmt.Errorf("%w: empty href", ErrInvalidArgument)
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}

	var joined string
	if strings.HasPrefix(href, "/") {
		joined = strings.TrimLeft(href, "/")
	} else {
		joined = path.Join(baseDir, href)
	}
	cleaned := path.Clean(joined)
	if !isSafePath(cleaned) || cleaned == "." {
		return "", fmt.Errorf("%w: %q escapes the archive root", ErrDocumentInvalid, href)
	}
	return cleaned, nil
}

// isSafePath checks whether p stays inside the archive root.
func isSafePath(p string) bool {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

// hasToken reports whether a list separated by whitespace or commas
// contains token.
func hasToken(list, token string) bool {
	if token == "" {
		return false
	}
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	for _, f := range fields {
		if f == token {
			return true
		}
	}
	return false
}
