package epub

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTestZip(t *testing.T, members []member, maxSize int64) *ZipArchive {
	t.Helper()
	p := writeZip(t, t.TempDir(), "test.zip", members)
	a, err := OpenZip(p, maxSize)
	if err != nil {
		t.Fatalf("OpenZip() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpenZip_FileNotFound(t *testing.T) {
	_, err := OpenZip("/nonexistent/file.epub", 0)
	if !errors.Is(err, ErrArchiveUnavailable) {
		t.Errorf("OpenZip() error = %v, want ErrArchiveUnavailable", err)
	}
}

func TestOpenZip_NotAZip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plain.epub")
	if err := os.WriteFile(p, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenZip(p, 0); !errors.Is(err, ErrArchiveUnavailable) {
		t.Errorf("OpenZip() error = %v, want ErrArchiveUnavailable", err)
	}
}

func TestZipArchive_Members(t *testing.T) {
	a := openTestZip(t, []member{
		{name: "mimetype", body: "application/epub+zip", method: zip.Store},
		{name: "OEBPS/", body: ""},
		{name: "OEBPS/chapter1.xhtml", body: "<html/>"},
		{name: "./OEBPS/style.css", body: "p{}"},
	}, 0)

	if a.MemberCount() != 4 {
		t.Errorf("MemberCount() = %d, want 4", a.MemberCount())
	}
	first, err := a.FirstMember()
	if err != nil || first != "mimetype" {
		t.Errorf("FirstMember() = %q, %v, want mimetype", first, err)
	}
	if !a.FirstMemberStored() {
		t.Error("FirstMemberStored() = false, want true")
	}
	if !a.Locate("OEBPS/chapter1.xhtml") {
		t.Error("Locate(chapter1) = false")
	}
	if !a.Locate("OEBPS/style.css") {
		t.Error("Locate() does not normalize ./ prefixes")
	}
	if a.Locate("missing") {
		t.Error("Locate(missing) = true")
	}

	size, err := a.UncompressedSize("OEBPS/chapter1.xhtml")
	if err != nil || size != uint64(len("<html/>")) {
		t.Errorf("UncompressedSize() = %d, %v, want %d", size, err, len("<html/>"))
	}
	if _, err := a.UncompressedSize("missing"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("UncompressedSize(missing) error = %v, want ErrFileNotFound", err)
	}

	data, err := a.ReadMember("OEBPS/chapter1.xhtml")
	if err != nil || string(data) != "<html/>" {
		t.Errorf("ReadMember() = %q, %v", data, err)
	}
	if _, err := a.ReadMember("nonexistent.file"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("ReadMember() error = %v, want ErrFileNotFound", err)
	}
}

func TestZipArchive_MaxMemberSize(t *testing.T) {
	a := openTestZip(t, []member{
		{name: "small", body: "1234"},
		{name: "big", body: strings.Repeat("x", 64)},
	}, 16)

	if _, err := a.ReadMember("small"); err != nil {
		t.Errorf("ReadMember(small) error = %v", err)
	}
	if _, err := a.ReadMember("big"); !errors.Is(err, ErrFileRead) {
		t.Errorf("ReadMember(big) error = %v, want ErrFileRead", err)
	}
}

func TestZipArchive_Closed(t *testing.T) {
	a := openTestZip(t, []member{{name: "a", body: "a"}}, 0)
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := a.ReadMember("a"); !errors.Is(err, ErrArchiveUnavailable) {
		t.Errorf("ReadMember() after Close error = %v, want ErrArchiveUnavailable", err)
	}
	if _, err := a.FirstMember(); !errors.Is(err, ErrArchiveUnavailable) {
		t.Errorf("FirstMember() after Close error = %v, want ErrArchiveUnavailable", err)
	}
	if a.MemberCount() != 0 {
		t.Errorf("MemberCount() after Close = %d, want 0", a.MemberCount())
	}
}

func TestZipArchive_ExtractAll(t *testing.T) {
	a := openTestZip(t, []member{
		{name: "mimetype", body: "application/epub+zip", method: zip.Store},
		{name: "META-INF/", body: ""},
		{name: "META-INF/container.xml", body: testContainerXML},
		{name: "OEBPS/text/deep/ch1.xhtml", body: "<html/>"},
	}, 0)

	dir := t.TempDir()
	n, err := a.ExtractAll(dir)
	if err != nil {
		t.Fatalf("ExtractAll() error = %v", err)
	}
	if n != 4 {
		t.Errorf("ExtractAll() = %d, want 4", n)
	}
	got, err := os.ReadFile(filepath.Join(dir, "OEBPS", "text", "deep", "ch1.xhtml"))
	if err != nil || string(got) != "<html/>" {
		t.Errorf("extracted ch1 = %q, %v", got, err)
	}
	if fi, err := os.Stat(filepath.Join(dir, "META-INF")); err != nil || !fi.IsDir() {
		t.Errorf("META-INF not extracted as a directory: %v", err)
	}
}

func TestZipArchive_ExtractAllRefusesEscapes(t *testing.T) {
	a := openTestZip(t, []member{
		{name: "ok.txt", body: "ok"},
		{name: "../evil.txt", body: "evil"},
	}, 0)

	parent := t.TempDir()
	dir := filepath.Join(parent, "out")
	n, err := a.ExtractAll(dir)
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("ExtractAll() error = %v, want ErrUnknown", err)
	}
	if n != 1 {
		t.Errorf("ExtractAll() wrote %d, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(parent, "evil.txt")); !os.IsNotExist(err) {
		t.Errorf("escaping member was written: %v", err)
	}
}
