package epub

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
)

// DefaultMaxMemberSize bounds how many bytes a single archive member may
// decompress to.
const DefaultMaxMemberSize int64 = 256 << 20

// Archive is the container collaborator the document reads from. Member
// names are slash separated and relative to the archive root.
type Archive interface {
	// MemberCount returns the number of members, directories included.
	MemberCount() int
	// FirstMember returns the name of the first member in directory order.
	FirstMember() (string, error)
	// Locate reports whether a member exists.
	Locate(name string) bool
	// UncompressedSize returns the declared size of a member.
	UncompressedSize(name string) (uint64, error)
	// ReadMember returns the decompressed bytes of a member.
	ReadMember(name string) ([]byte, error)
	// ExtractAll writes every member below dir and returns how many were written.
	ExtractAll(dir string) (int, error)
	Close() error
}

// ZipArchive provides access to EPUB file contents
type ZipArchive struct {
	zipReader *zip.ReadCloser
	files     map[string]*zip.File
	maxSize   int64
}

var _ Archive = (*ZipArchive)(nil)

// OpenZip opens the ZIP container at path. maxMemberSize <= 0 selects
// DefaultMaxMemberSize.
func OpenZip(path string, maxMemberSize int64) (*ZipArchive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveUnavailable, err)
	}
	if maxMemberSize <= 0 {
		maxMemberSize = DefaultMaxMemberSize
	}
	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)

	a := &ZipArchive{
		zipReader: zr,
		files:     make(map[string]*zip.File, len(zr.File)),
		maxSize:   maxMemberSize,
	}
	// Build file map with normalized paths; the first of duplicate names wins.
	for _, f := range zr.File {
		name := normalizePath(f.Name)
		if _, ok := a.files[name]; !ok {
			a.files[name] = f
		}
	}
	return a, nil
}

// Close closes the archive. Closing twice is a no-op.
func (a *ZipArchive) Close() error {
	if a == nil || a.zipReader == nil {
		return nil
	}
	err := a.zipReader.Close()
	a.zipReader = nil
	a.files = nil
	return err
}

func (a *ZipArchive) available() error {
	if a == nil || a.zipReader == nil {
		return ErrArchiveUnavailable
	}
	return nil
}

// MemberCount returns the number of members in the archive.
func (a *ZipArchive) MemberCount() int {
	if a.available() != nil {
		return 0
	}
	return len(a.zipReader.File)
}

// Members returns the member names in directory order.
func (a *ZipArchive) Members() []string {
	if a.available() != nil {
		return nil
	}
	names := make([]string, len(a.zipReader.File))
	for i, f := range a.zipReader.File {
		names[i] = f.Name
	}
	return names
}

// FirstMember returns the name of the first member.
func (a *ZipArchive) FirstMember() (string, error) {
	if err := a.available(); err != nil {
		return "", err
	}
	if len(a.zipReader.File) == 0 {
		return "", fmt.Errorf("%w: archive is empty", ErrFileNotFound)
	}
	return a.zipReader.File[0].Name, nil
}

// FirstMemberStored reports whether the first member is stored without
// compression, as OCF requires for the mimetype.
func (a *ZipArchive) FirstMemberStored() bool {
	if a.available() != nil || len(a.zipReader.File) == 0 {
		return false
	}
	return a.zipReader.File[0].Method == zip.Store
}

// Locate reports whether the archive contains name.
func (a *ZipArchive) Locate(name string) bool {
	_, err := a.lookup(name)
	return err == nil
}

func (a *ZipArchive) lookup(name string) (*zip.File, error) {
	if err := a.available(); err != nil {
		return nil, err
	}
	name = normalizePath(name)
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return f, nil
}

// UncompressedSize returns the size recorded in the central directory.
func (a *ZipArchive) UncompressedSize(name string) (uint64, error) {
	f, err := a.lookup(name)
	if err != nil {
		return 0, err
	}
	return f.UncompressedSize64, nil
}

// ReadMember reads the contents of a file from the EPUB
func (a *ZipArchive) ReadMember(name string) ([]byte, error) {
	f, err := a.lookup(name)
	if err != nil {
		return nil, err
	}
	return a.read(f)
}

func (a *ZipArchive) read(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > uint64(a.maxSize) {
		return nil, fmt.Errorf("%w: %s declares %d bytes, limit is %d", ErrFileRead, f.Name, f.UncompressedSize64, a.maxSize)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileRead, f.Name, err)
	}
	defer rc.Close()

	// The declared size may lie; read one byte past the limit to notice.
	data, err := io.ReadAll(io.LimitReader(rc, a.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileRead, f.Name, err)
	}
	if int64(len(data)) > a.maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileRead, f.Name, a.maxSize)
	}
	return data, nil
}

// ExtractAll writes every member below dir, creating intermediate
// directories. Member names that would land outside dir are refused.
func (a *ZipArchive) ExtractAll(dir string) (int, error) {
	if err := a.available(); err != nil {
		return 0, err
	}
	if dir == "" {
		return 0, fmt.Errorf("%w: empty destination", ErrInvalidArgument)
	}

	written := 0
	for _, f := range a.zipReader.File {
		if !isSafePath(f.Name) {
			return written, fmt.Errorf("%w: unsafe member path %q", ErrUnknown, f.Name)
		}
		dst := filepath.Join(dir, filepath.FromSlash(f.Name))

		if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return written, fmt.Errorf("%w: %w", ErrUnknown, err)
			}
			written++
			continue
		}

		data, err := a.read(f)
		if err != nil {
			return written, err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return written, fmt.Errorf("%w: %w", ErrUnknown, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return written, fmt.Errorf("%w: %w", ErrUnknown, err)
		}
		written++
	}
	return written, nil
}

// isNotFound reports whether err means the member is absent.
func isNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}
