// Package format defines the interface for bepress metadata format plugins.
package format

import (
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/bepress-migrate/hub"
	"github.com/lehigh-university-libraries/bepress-migrate/mapping"
)

// Format defines the interface that all format plugins must implement.
type Format interface {
	// Name returns the format identifier (e.g., "xml", "csv")
	Name() string

	// Description returns a human-readable format description
	Description() string

	// Extensions returns file extensions associated with this format
	Extensions() []string

	// CanParse returns true if this format can parse the given input
	CanParse(peek []byte) bool
}

// Parser is a format that can parse input into hub documents.
type Parser interface {
	Format

	// Parse reads input and returns hub documents.
	// A malformed field never fails the parse; only unreadable input does.
	Parse(r io.Reader, opts *ParseOptions) ([]*hub.Document, error)
}

// Serializer is a format that can write hub documents to output.
type Serializer interface {
	Format

	// Serialize writes hub documents to the output.
	Serialize(w io.Writer, docs []*hub.Document, opts *SerializeOptions) error
}

// ParseOptions contains options for parsing.
type ParseOptions struct {
	// Profile is the import profile to use
	Profile *mapping.Profile

	// StripHTML removes HTML from title and keyword fields
	StripHTML bool

	// SourceName is an identifier for the source (for log messages)
	SourceName string

	// PathHint is copied onto every parsed document
	PathHint string

	// Logger receives parse-degradation warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// SerializeOptions contains options for serialization.
type SerializeOptions struct {
	// Pretty enables indented output
	Pretty bool
}

// NewParseOptions creates ParseOptions with defaults.
func NewParseOptions() *ParseOptions {
	return &ParseOptions{}
}

// NewSerializeOptions creates SerializeOptions with defaults.
func NewSerializeOptions() *SerializeOptions {
	return &SerializeOptions{
		Pretty: true,
	}
}

// Log returns the configured logger, falling back to the default one.
func (o *ParseOptions) Log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
