// Package bepresscsv provides a format plugin for bepress batch CSV exports,
// where every row is one document and author columns repeat with a
// positional index (author1_fname, author2_fname, ...).
package bepresscsv

import (
	"bytes"

	"github.com/lehigh-university-libraries/bepress-migrate/format"
)

// Format implements the bepress CSV format.
type Format struct{}

// Ensure Format implements the interfaces
var (
	_ format.Format = (*Format)(nil)
	_ format.Parser = (*Format)(nil)
)

// Name returns the format identifier.
func (f *Format) Name() string {
	return "csv"
}

// Description returns a human-readable format description.
func (f *Format) Description() string {
	return "bepress Digital Commons batch export (CSV)"
}

// Extensions returns file extensions associated with this format.
func (f *Format) Extensions() []string {
	return []string{"csv"}
}

// CanParse returns true if the input looks like a bepress CSV export.
func (f *Format) CanParse(peek []byte) bool {
	peek = bytes.TrimPrefix(bytes.TrimSpace(peek), []byte("\xef\xbb\xbf"))
	if len(peek) == 0 || peek[0] == '<' || peek[0] == '{' || peek[0] == '[' {
		return false
	}
	header, _, _ := bytes.Cut(peek, []byte("\n"))
	header = bytes.ToLower(header)
	return bytes.Contains(header, []byte("title")) && bytes.Contains(header, []byte("author1_"))
}

func init() {
	format.Register(&Format{})
}
