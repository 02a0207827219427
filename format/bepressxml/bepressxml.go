// Package bepressxml provides a format plugin for bepress (Digital Commons)
// per-document metadata.xml exports.
package bepressxml

import (
	"bytes"

	"github.com/lehigh-university-libraries/bepress-migrate/format"
)

// Format implements the bepress XML format.
type Format struct{}

// Ensure Format implements the interfaces
var (
	_ format.Format     = (*Format)(nil)
	_ format.Parser     = (*Format)(nil)
	_ format.Serializer = (*Format)(nil)
)

// Name returns the format identifier.
func (f *Format) Name() string {
	return "xml"
}

// Description returns a human-readable format description.
func (f *Format) Description() string {
	return "bepress Digital Commons document export (metadata.xml)"
}

// Extensions returns file extensions associated with this format.
func (f *Format) Extensions() []string {
	return []string{"xml"}
}

// CanParse returns true if the input looks like a bepress document export.
func (f *Format) CanParse(peek []byte) bool {
	peek = bytes.TrimSpace(peek)
	if len(peek) == 0 || peek[0] != '<' {
		return false
	}
	return bytes.Contains(peek, []byte("<documents")) || bytes.Contains(peek, []byte("<document>"))
}

func init() {
	format.Register(&Format{})
}
