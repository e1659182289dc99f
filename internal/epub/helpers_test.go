package epub

import (
	"archive/zip"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// member is one entry of a synthesized archive, written in order.
type member struct {
	name   string
	body   string
	method uint16 // zip.Store (the zero value) or zip.Deflate
}

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// writeZip writes members to dir/name in order and returns the path.
func writeZip(t *testing.T, dir, name string, members []member) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, m := range members {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: m.name, Method: m.method})
		if err != nil {
			t.Fatalf("failed to create %s: %v", m.name, err)
		}
		if _, err := fw.Write([]byte(m.body)); err != nil {
			t.Fatalf("failed to write %s: %v", m.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish %s: %v", name, err)
	}
	return p
}

// writeEPUB writes a valid OCF archive: stored mimetype, container.xml
// pointing at OEBPS/content.opf, then files in order.
func writeEPUB(t *testing.T, opf string, files ...member) string {
	t.Helper()
	members := []member{
		{name: "mimetype", body: "application/epub+zip", method: zip.Store},
		{name: "META-INF/container.xml", body: testContainerXML},
		{name: "OEBPS/content.opf", body: opf},
	}
	members = append(members, files...)
	return writeZip(t, t.TempDir(), "test.epub", members)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Logger = discardLogger()
	return opts
}

// mustParseOPF parses opf into a fresh Package.
func mustParseOPF(t *testing.T, opf string) *Package {
	t.Helper()
	pkg := NewPackage()
	if err := ParseOPF([]byte(opf), pkg, 0); err != nil {
		t.Fatalf("ParseOPF() error = %v", err)
	}
	return pkg
}
