// Package mapping provides import profiles describing how one bepress
// archive maps onto the catalog.
package mapping

import (
	"sort"
	"strings"
)

// Profile represents a complete import configuration for one bepress archive.
type Profile struct {
	// Name is the profile identifier
	Name string `yaml:"name" json:"name"`

	// Description provides human-readable documentation
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Structure is the export topology (journal, series, events, books)
	Structure string `yaml:"structure,omitempty" json:"structure,omitempty"`

	// Stamped selects the cover-stamped PDF variant when set
	Stamped *bool `yaml:"stamped,omitempty" json:"stamped,omitempty"`

	// SectionField names a generic field whose value is the section title
	SectionField string `yaml:"section_field,omitempty" json:"section_field,omitempty"`

	// DefaultSection is used when a document carries no section hint
	DefaultSection string `yaml:"default_section,omitempty" json:"default_section,omitempty"`

	// CustomFields maps bepress field names to catalog custom fields
	CustomFields map[string]FieldMapping `yaml:"custom_fields,omitempty" json:"custom_fields,omitempty"`

	// Options contains format-specific options
	Options ProfileOptions `yaml:"options,omitempty" json:"options,omitempty"`
}

// FieldMapping describes how a bepress field maps to a catalog custom field.
type FieldMapping struct {
	// Field is the catalog custom field name
	Field string `yaml:"field" json:"field"`

	// Kind is the catalog field kind (e.g., "text", "textarea")
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Order positions the field on the catalog form; lower sorts first
	Order int `yaml:"order,omitempty" json:"order,omitempty"`

	// Transform specifies a transformation to apply (e.g., "strip_html")
	Transform string `yaml:"transform,omitempty" json:"transform,omitempty"`

	// Default is a default value if the source field is empty
	Default string `yaml:"default,omitempty" json:"default,omitempty"`
}

// ProfileOptions contains format-specific configuration options.
type ProfileOptions struct {
	// CSVDelimiter is the CSV field delimiter
	CSVDelimiter string `yaml:"csv_delimiter,omitempty" json:"csv_delimiter,omitempty"`

	// KeywordSeparator splits the disciplines column into keywords
	KeywordSeparator string `yaml:"keyword_separator,omitempty" json:"keyword_separator,omitempty"`

	// StripHTML strips HTML from title and keyword fields
	StripHTML bool `yaml:"strip_html,omitempty" json:"strip_html,omitempty"`
}

// GetKeywordSeparator returns the keyword separator with a default.
func (p *Profile) GetKeywordSeparator() string {
	if p != nil && p.Options.KeywordSeparator != "" {
		return p.Options.KeywordSeparator
	}
	return ";"
}

// GetCSVDelimiter returns the CSV delimiter with a default.
func (p *Profile) GetCSVDelimiter() rune {
	if p != nil && p.Options.CSVDelimiter != "" {
		return []rune(p.Options.CSVDelimiter)[0]
	}
	return ','
}

// IsStamped reports whether the stamped PDF variant is requested.
func (p *Profile) IsStamped() bool {
	return p != nil && p.Stamped != nil && *p.Stamped
}

// CustomFieldNames returns the mapped bepress field names ordered by the
// target field's Order, then by name.
func (p *Profile) CustomFieldNames() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.CustomFields))
	for name := range p.CustomFields {
		names = append(names, name)
	}
	sortByOrder(names, p.CustomFields)
	return names
}

// GetFieldMapping retrieves the mapping for a bepress field.
func (p *Profile) GetFieldMapping(sourceField string) (FieldMapping, bool) {
	if p == nil {
		return FieldMapping{}, false
	}
	m, ok := p.CustomFields[strings.ToLower(sourceField)]
	return m, ok
}

func sortByOrder(names []string, fields map[string]FieldMapping) {
	sort.Slice(names, func(i, j int) bool {
		oi, oj := fields[names[i]].Order, fields[names[j]].Order
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
}
