package bepressxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/lehigh-university-libraries/bepress-migrate/format"
	"github.com/lehigh-university-libraries/bepress-migrate/helpers"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

// xmlDocument mirrors one <document> element of a bepress export.
type xmlDocument struct {
	Title            string            `xml:"title"`
	Abstract         string            `xml:"abstract"`
	PublicationDate  string            `xml:"publication-date"`
	SubmissionDate   string            `xml:"submission-date"`
	EmbargoDate      string            `xml:"embargo-date"`
	ArticleID        string            `xml:"articleid"`
	FulltextURL      *string           `xml:"fulltext-url"`
	NativeURL        string            `xml:"native-url"`
	DocumentType     string            `xml:"document-type"`
	PublicationTitle string            `xml:"publication-title"`
	Label            string            `xml:"label"`
	FirstPage        string            `xml:"fpage"`
	LastPage         string            `xml:"lpage"`
	ContextKey       string            `xml:"context-key"`
	SubmissionPath   string            `xml:"submission-path"`
	Keywords         []string          `xml:"keywords>keyword"`
	Authors          []xmlAuthor       `xml:"authors>author"`
	Fields           []xmlField        `xml:"fields>field"`
	Supplemental     []xmlSupplemental `xml:"supplemental-files>file"`
}

type xmlAuthor struct {
	Type         string  `xml:"type,attr"`
	FirstName    *string `xml:"fname"`
	MiddleName   *string `xml:"mname"`
	LastName     *string `xml:"lname"`
	Suffix       *string `xml:"suffix"`
	Email        *string `xml:"email"`
	Institution  *string `xml:"institution"`
	Organization *string `xml:"organization"`
}

type xmlField struct {
	Name   string   `xml:"name,attr"`
	Type   string   `xml:"type,attr"`
	Values []string `xml:"value"`
}

type xmlSupplemental struct {
	ArchiveName string `xml:"archive-name"`
	UploadName  string `xml:"upload-name"`
	URL         string `xml:"url"`
	MimeType    string `xml:"mime-type"`
	Description string `xml:"description"`
}

// Parse reads a bepress export and returns one hub document per <document>
// element. The root may be <documents> or a bare <document>; any enclosing
// envelope (such as an OAI-PMH response) is skipped.
func (f *Format) Parse(r io.Reader, opts *format.ParseOptions) ([]*hub.Document, error) {
	if opts == nil {
		opts = format.NewParseOptions()
	}

	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charsetReader

	var docs []*hub.Document
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing bepress XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "document" {
			continue
		}

		var raw xmlDocument
		if err := dec.DecodeElement(&raw, &start); err != nil {
			return nil, fmt.Errorf("decoding document %d: %w", len(docs)+1, err)
		}
		docs = append(docs, raw.toHub(opts))
	}

	return docs, nil
}

// ErrNoDocument is returned by ParseDocument for input without a
// <document> element.
var ErrNoDocument = errors.New("no <document> element found")

// ParseDocument parses a single metadata.xml blob and returns its first
// document.
func ParseDocument(r io.Reader, opts *format.ParseOptions) (*hub.Document, error) {
	docs, err := (&Format{}).Parse(r, opts)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoDocument
	}
	return docs[0], nil
}

func (raw *xmlDocument) toHub(opts *format.ParseOptions) *hub.Document {
	log := opts.Log().With("source", opts.SourceName)

	doc := &hub.Document{
		ExternalID:       strings.TrimSpace(raw.ArticleID),
		Title:            strings.TrimSpace(raw.Title),
		Abstract:         strings.TrimSpace(raw.Abstract),
		DocumentType:     strings.TrimSpace(raw.DocumentType),
		NativeURL:        strings.TrimSpace(raw.NativeURL),
		PublicationTitle: strings.TrimSpace(raw.PublicationTitle),
		Label:            strings.TrimSpace(raw.Label),
		FirstPage:        strings.TrimSpace(raw.FirstPage),
		LastPage:         strings.TrimSpace(raw.LastPage),
		ContextKey:       strings.TrimSpace(raw.ContextKey),
		SubmissionPath:   strings.TrimSpace(raw.SubmissionPath),
		PathHint:         opts.PathHint,
	}
	if opts.StripHTML {
		doc.Title = helpers.CleanText(doc.Title)
	}

	if raw.FulltextURL != nil {
		doc.HasFulltextURL = true
		doc.FulltextURL = strings.TrimSpace(*raw.FulltextURL)
	}

	doc.PublishedAt = parseDate(log, "publication-date", raw.PublicationDate)
	doc.SubmittedAt = parseDate(log, "submission-date", raw.SubmissionDate)
	doc.EmbargoAt = parseDate(log, "embargo-date", raw.EmbargoDate)

	for _, k := range raw.Keywords {
		if opts.StripHTML {
			k = helpers.CleanText(k)
		}
		doc.AddKeyword(k)
	}

	for _, field := range raw.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" || len(field.Values) == 0 {
			continue
		}
		doc.Fields.Set(name, field.Values[0])
	}

	doc.LicenseURL, _ = doc.Fields.Get(hub.FieldLicense)
	doc.RightsText, _ = doc.Fields.Get(hub.FieldRights)
	doc.Language, _ = doc.Fields.Get(hub.FieldLanguage)
	if v, ok := doc.Fields.Get(hub.FieldPeerReviewed); ok {
		doc.PeerReviewed = v == "true"
	}
	if mediaFormat, ok := doc.Fields.Get(hub.FieldMultimediaFormat); ok {
		if mediaURL, ok := doc.Fields.Get(hub.FieldMultimediaURL); ok {
			doc.Media = &hub.Media{Format: strings.ToLower(mediaFormat), URL: mediaURL}
		}
	}

	for _, a := range raw.Authors {
		author, ok := a.toHub()
		if !ok {
			log.Debug("skipping empty author element", "external_id", doc.ExternalID)
			continue
		}
		doc.Authors = append(doc.Authors, author)
	}

	for _, s := range raw.Supplemental {
		doc.SupplementalFiles = append(doc.SupplementalFiles, hub.SupplementalFile{
			ArchiveName: strings.TrimSpace(s.ArchiveName),
			UploadName:  strings.TrimSpace(s.UploadName),
			URL:         strings.TrimSpace(s.URL),
			MimeType:    strings.TrimSpace(s.MimeType),
			Description: strings.TrimSpace(s.Description),
		})
	}

	return doc
}

// toHub converts an author element. It returns false for elements that
// carry no author data at all, which bepress emits as list terminators.
func (a xmlAuthor) toHub() (hub.Author, bool) {
	author := hub.Author{
		FirstName:   text(a.FirstName),
		MiddleName:  text(a.MiddleName),
		LastName:    text(a.LastName),
		Suffix:      text(a.Suffix),
		Email:       text(a.Email),
		Institution: text(a.Institution),
	}
	if a.Organization != nil || strings.Contains(strings.ToLower(a.Type), "corporate") {
		author.IsCorporate = true
		if org := text(a.Organization); org != "" {
			author.Institution = org
		}
	}

	if author.IsBlank() && a.FirstName == nil && a.LastName == nil && a.Email == nil {
		return hub.Author{}, false
	}
	return author, true
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func parseDate(log *slog.Logger, element, raw string) *time.Time {
	t, err := helpers.ParseDate(raw)
	if err != nil {
		log.Warn("unparseable date, leaving unset", "element", element, "value", raw, "error", err)
		return nil
	}
	return t
}

// charsetReader decodes the legacy encodings bepress declares in its XML
// prolog, most often iso-8859-1.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
