// Package hub defines the canonical in-memory representation of one bepress
// source document. Both the XML and the CSV adapters produce hub documents,
// and every reconciliation step consumes them.
package hub

import (
	"strings"
	"time"
)

// Document is one normalized source record.
//
// A Document is built fresh for every parse and is never persisted as-is.
type Document struct {
	// ExternalID is the durable identifier assigned by bepress (articleid).
	ExternalID string

	Title    string
	Abstract string

	// DocumentType is the bepress document-type label, used as a section hint.
	DocumentType string

	// SectionHint overrides DocumentType when a caller resolved it already.
	SectionHint string

	// Keywords keeps source order; duplicates are dropped by AddKeyword.
	Keywords []string

	PublishedAt *time.Time
	SubmittedAt *time.Time
	EmbargoAt   *time.Time

	LicenseURL string
	RightsText string

	// Fields is the generic name/value attribute bag of the source.
	Fields Fields

	Authors []Author

	FulltextURL string
	// HasFulltextURL reports whether the fulltext-url element was present at
	// all, even when empty. The local galley fallback only runs without it.
	HasFulltextURL bool

	SupplementalFiles []SupplementalFile
	Media             *Media
	NativeURL         string

	PublicationTitle string
	Label            string
	FirstPage        string
	LastPage         string
	ContextKey       string
	SubmissionPath   string
	Language         string
	PeerReviewed     bool

	// CalcURL is the landing page of the document (CSV exports only).
	CalcURL string
	// Issue is the export-relative issue path of a CSV row.
	Issue string

	// PathHint is the directory the metadata was found in, relative to the
	// export root.
	PathHint string
}

// SupplementalFile is an entry of the supplemental-files list.
type SupplementalFile struct {
	ArchiveName string
	UploadName  string
	URL         string
	MimeType    string
	Description string
}

// Media is a linked multimedia reference hosted elsewhere.
type Media struct {
	Format string
	URL    string
}

// AddKeyword appends a keyword unless it is blank or already present.
func (d *Document) AddKeyword(word string) {
	word = strings.TrimSpace(word)
	if word == "" {
		return
	}
	for _, k := range d.Keywords {
		if k == word {
			return
		}
	}
	d.Keywords = append(d.Keywords, word)
}

// Section returns the section label carried by the document itself.
func (d *Document) Section() string {
	if d.SectionHint != "" {
		return d.SectionHint
	}
	return d.DocumentType
}

// PublicationYear returns the year of PublishedAt, or 0 when unknown.
func (d *Document) PublicationYear() int {
	if d.PublishedAt == nil {
		return 0
	}
	return d.PublishedAt.Year()
}

// Pages returns the "first-last" page range, or "" when no first page exists.
func (d *Document) Pages() string {
	if d.FirstPage == "" {
		return ""
	}
	if d.LastPage == "" {
		return d.FirstPage
	}
	return d.FirstPage + "-" + d.LastPage
}
