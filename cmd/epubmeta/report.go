package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"

	"github.com/yuanying/epubmeta/internal/epub"
)

// infoReport is the machine readable form of the info command.
type infoReport struct {
	Path         string          `json:"path" yaml:"path"`
	Version      string          `json:"version" yaml:"version"`
	Title        string          `json:"title,omitempty" yaml:"title,omitempty"`
	Creators     []creatorReport `json:"creators,omitempty" yaml:"creators,omitempty"`
	Identifier   string          `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Language     string          `json:"language,omitempty" yaml:"language,omitempty"`
	LanguageName string          `json:"language_name,omitempty" yaml:"language_name,omitempty"`
	Publisher    string          `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Date         string          `json:"date,omitempty" yaml:"date,omitempty"`
	Rights       string          `json:"rights,omitempty" yaml:"rights,omitempty"`
	Subjects     []string        `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	Description  string          `json:"description,omitempty" yaml:"description,omitempty"`
	Rootfile     string          `json:"rootfile" yaml:"rootfile"`
	Members      int             `json:"members" yaml:"members"`
	Manifest     int             `json:"manifest_items" yaml:"manifest_items"`
	Spine        int             `json:"spine_items" yaml:"spine_items"`
	Linear       int             `json:"linear_items" yaml:"linear_items"`
	Cover        string          `json:"cover,omitempty" yaml:"cover,omitempty"`
	TOCSource    string          `json:"toc_source,omitempty" yaml:"toc_source,omitempty"`
	TOCEntries   int             `json:"toc_entries,omitempty" yaml:"toc_entries,omitempty"`
}

type creatorReport struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role,omitempty" yaml:"role,omitempty"`
}

func newInfoReport(doc *epub.Document) infoReport {
	md := doc.Metadata()
	r := infoReport{
		Path:         doc.Path(),
		Version:      md.Version.String(),
		Title:        md.Title,
		Identifier:   md.Identifier,
		Language:     md.Language,
		LanguageName: languageName(md.Language),
		Publisher:    md.Publisher,
		Date:         md.Date,
		Rights:       md.Rights,
		Subjects:     md.Subjects,
		Description:  md.Description,
		Rootfile:     doc.RootFile(),
		Members:      doc.MemberCount(),
		Manifest:     doc.Manifest().Len(),
		Spine:        doc.Spine().Len(),
		Linear:       doc.SequentialResourceCount(),
	}
	for _, c := range md.Creators {
		r.Creators = append(r.Creators, creatorReport{Name: c.Name, Role: c.Role})
	}
	if p, err := doc.CoverImagePath(); err == nil {
		r.Cover = p
	}
	if toc := doc.TOC(); toc != nil {
		r.TOCSource = string(toc.Source)
		r.TOCEntries = toc.Len()
	}
	return r
}

func writeInfo(out io.Writer, doc *epub.Document, format string) error {
	r := newInfoReport(doc)
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	row := func(key, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", key, value)
		}
	}
	row("Title", r.Title)
	for _, c := range r.Creators {
		if c.Role != "" {
			row("Creator", fmt.Sprintf("%s (%s)", c.Name, c.Role))
		} else {
			row("Creator", c.Name)
		}
	}
	row("Identifier", r.Identifier)
	if r.LanguageName != "" {
		row("Language", fmt.Sprintf("%s (%s)", r.Language, r.LanguageName))
	} else {
		row("Language", r.Language)
	}
	row("Publisher", r.Publisher)
	row("Date", r.Date)
	row("Rights", r.Rights)
	row("Subjects", strings.Join(r.Subjects, ", "))
	row("Description", r.Description)
	row("EPUB version", r.Version)
	row("Rootfile", r.Rootfile)
	row("Members", fmt.Sprint(r.Members))
	row("Manifest items", fmt.Sprint(r.Manifest))
	row("Spine", fmt.Sprintf("%d items, %d linear", r.Spine, r.Linear))
	row("Cover", r.Cover)
	if r.TOCSource != "" {
		row("TOC", fmt.Sprintf("%s, %d entries", r.TOCSource, r.TOCEntries))
	}
	return tw.Flush()
}

// languageName returns the English name of a BCP 47 tag, or "" when the
// value does not parse.
func languageName(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return ""
	}
	return display.English.Tags().Name(tag)
}
