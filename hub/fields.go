package hub

import (
	"sort"
	"strings"
)

// Well-known names in the bepress generic field bag.
const (
	FieldDOI                  = "doi"
	FieldLicense              = "distribution_license"
	FieldRights               = "rights"
	FieldCorrespondingAuthors = "corresponding_authors"
	FieldFinancialDisclosure  = "financial_disclosure"
	FieldNotes                = "notes"
	FieldComments             = "comments"
	FieldErratum              = "erratum"
	FieldTotalPages           = "tpages"
	FieldPublisherName        = "publisher_name"
	FieldPublisher            = "publisher"
	FieldCity                 = "city"
	FieldPeerReviewed         = "peer_reviewed"
	FieldRelation             = "relation"
	FieldMultimediaFormat     = "multimedia_format"
	FieldMultimediaURL        = "multimedia_url"
	FieldLanguage             = "language"
	FieldPublicationDate      = "publication_date"
	FieldFirstPage            = "fpage"
)

// Fields maps a lower-cased bepress field name to its value. bepress
// exports mix "Orcid_ID" and "orcid_id" for the same field.
//
// Lookups never assume presence; use Get.
type Fields map[string]string

// Get returns the trimmed value of the named field and whether it exists
// with a non-empty value.
func (f Fields) Get(name string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Set stores a field value, allocating the map on first use.
func (f *Fields) Set(name, value string) {
	if *f == nil {
		*f = make(Fields)
	}
	(*f)[strings.ToLower(strings.TrimSpace(name))] = value
}

// Names returns the field names in sorted order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
