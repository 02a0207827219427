package bepressxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"strconv"
	"time"

	"github.com/lehigh-university-libraries/bepress-migrate/format"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

type outDocuments struct {
	XMLName   xml.Name      `xml:"documents"`
	Documents []outDocument `xml:"document"`
}

type outDocument struct {
	Title            string        `xml:"title"`
	PublicationDate  string        `xml:"publication-date,omitempty"`
	SubmissionDate   string        `xml:"submission-date,omitempty"`
	Authors          *outAuthors   `xml:"authors,omitempty"`
	Keywords         *outKeywords  `xml:"keywords,omitempty"`
	Abstract         string        `xml:"abstract,omitempty"`
	FulltextURL      *string       `xml:"fulltext-url,omitempty"`
	NativeURL        string        `xml:"native-url,omitempty"`
	DocumentType     string        `xml:"document-type,omitempty"`
	PublicationTitle string        `xml:"publication-title,omitempty"`
	Label            string        `xml:"label,omitempty"`
	FirstPage        string        `xml:"fpage,omitempty"`
	LastPage         string        `xml:"lpage,omitempty"`
	ArticleID        string        `xml:"articleid"`
	ContextKey       string        `xml:"context-key,omitempty"`
	SubmissionPath   string        `xml:"submission-path,omitempty"`
	Fields           *outFields    `xml:"fields,omitempty"`
	Supplemental     *outSuppFiles `xml:"supplemental-files,omitempty"`
}

type outAuthors struct {
	Authors []outAuthor `xml:"author"`
}

type outAuthor struct {
	Email        string `xml:"email,omitempty"`
	Institution  string `xml:"institution,omitempty"`
	Organization string `xml:"organization,omitempty"`
	LastName     string `xml:"lname,omitempty"`
	FirstName    string `xml:"fname,omitempty"`
	MiddleName   string `xml:"mname,omitempty"`
	Suffix       string `xml:"suffix,omitempty"`
}

type outKeywords struct {
	Keywords []string `xml:"keyword"`
}

type outFields struct {
	Fields []outField `xml:"field"`
}

type outField struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:"value"`
}

type outSuppFiles struct {
	Files []outSuppFile `xml:"file"`
}

type outSuppFile struct {
	ArchiveName string `xml:"archive-name,omitempty"`
	UploadName  string `xml:"upload-name,omitempty"`
	URL         string `xml:"url,omitempty"`
	MimeType    string `xml:"mime-type,omitempty"`
	Description string `xml:"description,omitempty"`
}

// Serialize writes documents as a single bepress <documents> export.
func (f *Format) Serialize(w io.Writer, docs []*hub.Document, opts *format.SerializeOptions) error {
	if opts == nil {
		opts = format.NewSerializeOptions()
	}

	out := outDocuments{Documents: make([]outDocument, 0, len(docs))}
	for _, doc := range docs {
		out.Documents = append(out.Documents, fromHub(doc))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing XML header: %w", err)
	}
	enc := xml.NewEncoder(w)
	if opts.Pretty {
		enc.Indent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding bepress XML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding bepress XML: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Render returns the metadata.xml text for a single document.
func Render(doc *hub.Document) (string, error) {
	var buf bytes.Buffer
	if err := (&Format{}).Serialize(&buf, []*hub.Document{doc}, format.NewSerializeOptions()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func fromHub(doc *hub.Document) outDocument {
	out := outDocument{
		Title:            doc.Title,
		PublicationDate:  formatDate(doc.PublishedAt),
		SubmissionDate:   formatDate(doc.SubmittedAt),
		Abstract:         doc.Abstract,
		NativeURL:        doc.NativeURL,
		DocumentType:     doc.DocumentType,
		PublicationTitle: doc.PublicationTitle,
		Label:            doc.Label,
		FirstPage:        doc.FirstPage,
		LastPage:         doc.LastPage,
		ArticleID:        doc.ExternalID,
		ContextKey:       doc.ContextKey,
		SubmissionPath:   doc.SubmissionPath,
	}

	if doc.HasFulltextURL || doc.FulltextURL != "" {
		u := doc.FulltextURL
		out.FulltextURL = &u
	}

	if len(doc.Authors) > 0 {
		out.Authors = &outAuthors{}
		for _, a := range doc.Authors {
			oa := outAuthor{Email: a.Email}
			if a.IsCorporate {
				oa.Organization = a.Institution
			} else {
				oa.Institution = a.Institution
				oa.LastName = a.LastName
				oa.FirstName = a.FirstName
				oa.MiddleName = a.MiddleName
				oa.Suffix = a.Suffix
			}
			out.Authors.Authors = append(out.Authors.Authors, oa)
		}
	}

	if len(doc.Keywords) > 0 {
		out.Keywords = &outKeywords{Keywords: doc.Keywords}
	}

	fields := maps.Clone(doc.Fields)
	if doc.Language != "" {
		fields.Set(hub.FieldLanguage, doc.Language)
	}
	fields.Set(hub.FieldPeerReviewed, strconv.FormatBool(doc.PeerReviewed))
	if doc.LicenseURL != "" {
		fields.Set(hub.FieldLicense, doc.LicenseURL)
	}
	if doc.RightsText != "" {
		fields.Set(hub.FieldRights, doc.RightsText)
	}
	if doc.Media != nil {
		fields.Set(hub.FieldMultimediaFormat, doc.Media.Format)
		fields.Set(hub.FieldMultimediaURL, doc.Media.URL)
	}
	out.Fields = &outFields{}
	for _, name := range fields.Names() {
		v, ok := fields.Get(name)
		if !ok {
			continue
		}
		out.Fields.Fields = append(out.Fields.Fields, outField{Name: name, Type: fieldType(name), Value: v})
	}

	if len(doc.SupplementalFiles) > 0 {
		out.Supplemental = &outSuppFiles{}
		for _, s := range doc.SupplementalFiles {
			out.Supplemental.Files = append(out.Supplemental.Files, outSuppFile(s))
		}
	}

	return out
}

func fieldType(name string) string {
	switch name {
	case hub.FieldPeerReviewed:
		return "boolean"
	case hub.FieldComments, hub.FieldErratum, hub.FieldNotes:
		return "html"
	default:
		return "string"
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
