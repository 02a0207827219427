package bepresscsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/bepress-migrate/format"
	"github.com/lehigh-university-libraries/bepress-migrate/helpers"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

// MaxAuthors is the number of positional author column groups in an export.
const MaxAuthors = 5

// DefaultLanguage is assumed for rows without a language column value.
const DefaultLanguage = "en"

const utf8BOM = "\ufeff"

// Row is one CSV record keyed by lower-cased column name.
type Row map[string]string

// Get returns the trimmed value of a column.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r[col])
}

// columns consumed directly; everything else is carried into Fields
var knownColumns = map[string]bool{
	"title":            true,
	"abstract":         true,
	"disciplines":      true,
	"keywords":         true,
	"fulltext_url":     true,
	"calc_url":         true,
	"context_key":      true,
	"article_id":       true,
	"issue":            true,
	"language":         true,
	"peer_reviewed":    true,
	"publication_date": true,
	"document_type":    true,
}

// Parse reads a bepress CSV export and returns one hub document per row.
// No network access happens here; see Scraper for the landing-page fallback.
func (f *Format) Parse(r io.Reader, opts *format.ParseOptions) ([]*hub.Document, error) {
	if opts == nil {
		opts = format.NewParseOptions()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.Comma = opts.Profile.GetCSVDelimiter()

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	// First row is header
	header := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		if i == 0 {
			col = strings.TrimPrefix(col, utf8BOM)
		}
		header[i] = strings.ToLower(strings.TrimSpace(col))
	}

	docs := make([]*hub.Document, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := make(Row, len(header))
		blank := true
		for j, value := range rows[i] {
			if j >= len(header) {
				break
			}
			row[header[j]] = value
			if strings.TrimSpace(value) != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		docs = append(docs, RowToDocument(row, opts))
	}

	opts.Log().Debug("parsed bepress CSV", "source", opts.SourceName, "rows", len(docs))
	return docs, nil
}

// RowToDocument converts one CSV row into a hub document.
func RowToDocument(row Row, opts *format.ParseOptions) *hub.Document {
	if opts == nil {
		opts = format.NewParseOptions()
	}

	doc := &hub.Document{
		Title:        row.Get("title"),
		Abstract:     row.Get("abstract"),
		DocumentType: row.Get("document_type"),
		CalcURL:      row.Get("calc_url"),
		ContextKey:   row.Get("context_key"),
		Issue:        strings.Trim(row.Get("issue"), "/"),
		Language:     row.Get("language"),
		PeerReviewed: hub.ParseBool(row.Get("peer_reviewed")),
		PathHint:     opts.PathHint,
	}
	if opts.StripHTML {
		doc.Title = helpers.CleanText(doc.Title)
	}
	if doc.Language == "" {
		doc.Language = DefaultLanguage
	}

	if _, ok := row["fulltext_url"]; ok {
		doc.HasFulltextURL = true
	}
	if u := row.Get("fulltext_url"); u != "" {
		doc.FulltextURL = helpers.WithStampVariant(u, opts.Profile.IsStamped())
	}

	disciplines := row.Get("disciplines")
	if disciplines == "" {
		disciplines = row.Get("keywords")
	}
	for _, k := range helpers.SplitList(disciplines, opts.Profile.GetKeywordSeparator()) {
		doc.AddKeyword(k)
	}

	if raw := row.Get("publication_date"); raw != "" {
		t, err := helpers.ParseDate(raw)
		if err != nil {
			opts.Log().Warn("unparseable publication_date, leaving unset", "source", opts.SourceName, "value", raw, "error", err)
		}
		doc.PublishedAt = t
	}

	doc.Authors = ParseAuthors(row)

	for col, value := range row {
		if knownColumns[col] || isAuthorColumn(col) {
			continue
		}
		if strings.TrimSpace(value) != "" {
			doc.Fields.Set(col, value)
		}
	}
	doc.LicenseURL, _ = doc.Fields.Get(hub.FieldLicense)
	doc.RightsText, _ = doc.Fields.Get(hub.FieldRights)

	doc.ExternalID = ExternalID(doc, row.Get("article_id"))
	return doc
}

// ExternalID derives a row's bepress id: an explicit id wins, then the
// "article" query parameter of the fulltext URL, then the context key.
func ExternalID(doc *hub.Document, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if id, ok := helpers.QueryParam(doc.FulltextURL, "article"); ok {
		return id
	}
	return doc.ContextKey
}

// authorColumns maps column suffixes to the author attribute they fill.
var authorColumns = []string{"fname", "mname", "lname", "suffix", "email", "institution", "is_corporate"}

func isAuthorColumn(col string) bool {
	if !strings.HasPrefix(col, "author") {
		return false
	}
	_, suffix, ok := strings.Cut(col, "_")
	if !ok {
		return false
	}
	for _, c := range authorColumns {
		if suffix == c {
			return true
		}
	}
	return false
}

// ParseAuthors builds the ordered author list of a row. Author groups are
// contiguous from index 1: the scan stops at the first group whose columns
// are all blank and never looks at later indexes.
func ParseAuthors(row Row) []hub.Author {
	var authors []hub.Author
	for i := 1; i <= MaxAuthors; i++ {
		col := func(name string) string {
			return row.Get(fmt.Sprintf("author%d_%s", i, name))
		}
		a := hub.Author{
			FirstName:   col("fname"),
			MiddleName:  col("mname"),
			LastName:    col("lname"),
			Suffix:      col("suffix"),
			Email:       col("email"),
			Institution: col("institution"),
		}
		corporate := col("is_corporate")
		a.IsCorporate = hub.ParseBool(corporate)

		if a.IsBlank() && corporate == "" {
			break
		}
		authors = append(authors, a)
	}
	return authors
}
