package epub

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
)

const epubMimetype = "application/epub+zip"

// Options configures how a Document is opened and parsed.
type Options struct {
	// Logger receives parse progress at Debug and recoverable problems at
	// Warn. Nil means slog.Default().
	Logger *slog.Logger

	// MaxMemberSize bounds the decompressed size of any single member read
	// from the archive. Zero selects DefaultMaxMemberSize.
	MaxMemberSize int64

	// MaxDepth bounds the parse stack of the OPF, NCX and nav parsers.
	// Zero selects 64.
	MaxDepth int

	// LenientMimetype accepts any first member whose content starts with
	// "application/epub+zip". By default the first member must be named
	// "mimetype" and hold exactly that string.
	LenientMimetype bool
}

// DefaultOptions returns the options Open uses.
func DefaultOptions() Options {
	return Options{
		MaxMemberSize: DefaultMaxMemberSize,
		MaxDepth:      defaultMaxDepth,
	}
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.MaxMemberSize <= 0 {
		o.MaxMemberSize = DefaultMaxMemberSize
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}
	return o
}

// Document is an opened EPUB: the archive plus the metadata, manifest,
// spine, guide and table of contents parsed from it. A Document is not safe
// for concurrent use; independent Documents share no state.
type Document struct {
	opts Options
	log  *slog.Logger

	archive     Archive
	path        string
	memberCount int

	rootFile string
	pkg      *Package
	toc      *TOC
}

// NewDocument returns an empty Document with no archive attached.
func NewDocument(opts Options) *Document {
	opts = opts.withDefaults()
	return &Document{
		opts: opts,
		log:  opts.Logger,
		pkg:  NewPackage(),
	}
}

// Open opens the EPUB at path with DefaultOptions and runs the bootstrap
// pipeline. On error the archive is closed and no Document is returned.
func Open(path string) (*Document, error) {
	return OpenWithOptions(path, DefaultOptions())
}

// OpenWithOptions is Open with explicit options.
func OpenWithOptions(path string, opts Options) (*Document, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}
	d := NewDocument(opts)
	if err := d.AttachArchive(path); err != nil {
		return nil, err
	}
	if err := d.Bootstrap(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// AttachArchive opens the ZIP container at path and records its member
// count. Any previously attached archive is closed first.
func (d *Document) AttachArchive(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}
	a, err := OpenZip(path, d.opts.MaxMemberSize)
	if err != nil {
		return err
	}
	d.attach(a, path)
	return nil
}

// UseArchive attaches an already opened archive. The Document takes
// ownership and closes it on Close.
func (d *Document) UseArchive(a Archive, name string) error {
	if a == nil {
		return fmt.Errorf("%w: nil archive", ErrInvalidArgument)
	}
	d.attach(a, name)
	return nil
}

func (d *Document) attach(a Archive, path string) {
	if d.archive != nil {
		d.archive.Close()
	}
	d.archive = a
	d.path = path
	d.memberCount = a.MemberCount()
	d.log.Debug("archive attached", "path", path, "members", d.memberCount)
}

// Close releases the archive and the parsed aggregates. It is safe to call
// on a partially bootstrapped Document and more than once.
func (d *Document) Close() error {
	if d == nil {
		return nil
	}
	var err error
	if d.archive != nil {
		err = d.archive.Close()
		d.archive = nil
	}
	d.memberCount = 0
	d.rootFile = ""
	d.pkg = NewPackage()
	d.toc = nil
	return err
}

func (d *Document) requireArchive() error {
	if d == nil || d.archive == nil {
		return ErrArchiveUnavailable
	}
	return nil
}

// Path returns the path the archive was opened from.
func (d *Document) Path() string {
	return d.path
}

// ValidateMimetype checks the OCF mimetype, which must be the first member.
func (d *Document) ValidateMimetype() error {
	if err := d.requireArchive(); err != nil {
		return err
	}
	name, err := d.archive.FirstMember()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMimetype, err)
	}
	if !d.opts.LenientMimetype && normalizePath(name) != "mimetype" {
		return fmt.Errorf("%w: first member is %q", ErrInvalidMimetype, name)
	}
	data, err := d.archive.ReadMember(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMimetype, err)
	}

	ok := string(data) == epubMimetype
	if d.opts.LenientMimetype {
		ok = bytes.HasPrefix(data, []byte(epubMimetype))
	}
	if !ok {
		return fmt.Errorf("%w: got %q", ErrInvalidMimetype, truncate(data, 32))
	}
	if z, isZip := d.archive.(*ZipArchive); isZip && !z.FirstMemberStored() {
		d.log.Warn("mimetype member is compressed", "path", d.path)
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

// Bootstrap runs the fail-fast pipeline: mimetype, container.xml, package
// document, then the NCX (EPUB 2) or nav document (EPUB 3). The first
// failing step's error is returned and later steps do not run.
func (d *Document) Bootstrap() error {
	if err := d.requireArchive(); err != nil {
		return err
	}
	if err := d.ValidateMimetype(); err != nil {
		return err
	}

	rootFile, err := d.RootFilePath()
	if err != nil {
		return err
	}
	d.rootFile = rootFile

	data, err := d.archive.ReadMember(rootFile)
	if err != nil {
		return fmt.Errorf("read package document: %w", err)
	}
	pkg := NewPackage()
	if err := ParseOPF(data, pkg, d.opts.MaxDepth); err != nil {
		return err
	}
	d.pkg = pkg
	d.logPackage()

	switch {
	case pkg.Metadata.Version != Version3 && pkg.Metadata.NCXItem.Valid():
		toc, err := d.loadNCX()
		if err != nil {
			return err
		}
		d.toc = toc
	case pkg.Metadata.Version == Version3:
		d.toc = d.loadNav()
	}
	if d.toc != nil {
		d.log.Debug("table of contents parsed", "source", d.toc.Source, "entries", d.toc.Len(), "roots", d.toc.RootCount())
	}
	return nil
}

func (d *Document) logPackage() {
	md := d.pkg.Metadata
	d.log.Debug("package document parsed",
		"rootfile", d.rootFile,
		"version", md.Version.String(),
		"manifest_items", d.pkg.Manifest.Len(),
		"spine_items", d.pkg.Spine.Len(),
		"spine_linear", d.pkg.Spine.LinearCount(),
	)
	for _, it := range d.pkg.Spine.Items() {
		if !it.Item.Valid() {
			d.log.Warn("spine itemref does not resolve", "idref", it.IDRef)
		}
	}
}

// RootFilePath reads META-INF/container.xml and returns the archive path of
// the package document.
func (d *Document) RootFilePath() (string, error) {
	if err := d.requireArchive(); err != nil {
		return "", err
	}
	data, err := d.archive.ReadMember(containerPath)
	if err != nil {
		return "", fmt.Errorf("read container: %w", err)
	}
	return parseContainer(data)
}

// packageDir is the directory hrefs in the package document are relative to.
func (d *Document) packageDir() string {
	return packageDir(d.rootFile)
}

func (d *Document) loadNCX() (*TOC, error) {
	item, ok := d.pkg.Manifest.Item(d.pkg.Metadata.NCXItem)
	if !ok {
		return nil, fmt.Errorf("%w: ncx item", ErrElementNotFound)
	}
	ncxPath, err := resolveArchivePath(d.packageDir(), item.Href)
	if err != nil {
		return nil, fmt.Errorf("ncx %q: %w", item.Href, err)
	}
	data, err := d.archive.ReadMember(ncxPath)
	if err != nil {
		return nil, fmt.Errorf("read ncx: %w", err)
	}
	return ParseNCX(data, ncxPath, d.opts.MaxDepth)
}

// loadNav parses the EPUB 3 navigation document. Problems are logged and
// leave the TOC absent.
func (d *Document) loadNav() *TOC {
	navs := d.pkg.Manifest.ItemsWithProperty("nav")
	if len(navs) == 0 {
		d.log.Debug("no navigation document in manifest")
		return nil
	}
	navPath, err := resolveArchivePath(d.packageDir(), navs[0].Href)
	if err != nil {
		d.log.Warn("navigation document path rejected", "href", navs[0].Href, "error", err)
		return nil
	}
	data, err := d.archive.ReadMember(navPath)
	if err != nil {
		level := slog.LevelWarn
		if isNotFound(err) {
			level = slog.LevelInfo
		}
		d.log.Log(context.Background(), level, "navigation document unreadable", "path", navPath, "error", err)
		return nil
	}
	toc, err := ParseNav(data, navPath, d.opts.MaxDepth)
	if err != nil {
		d.log.Warn("navigation document unparsable", "path", navPath, "error", err)
		return nil
	}
	return toc
}
