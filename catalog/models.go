// Package catalog describes the target scholarly-publishing catalog that
// bepress documents are reconciled into, and the store contract the
// reconcilers depend on.
package catalog

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Article stages.
const (
	StageUnassigned = "Unassigned"
	StagePublished  = "Published"
)

// Issue types.
const (
	IssueTypeIssue      = "issue"
	IssueTypeCollection = "collection"
)

// Galley kinds. An article has at most one galley of each kind.
const (
	GalleyPDF   = "pdf"
	GalleyHTML  = "html"
	GalleyImage = "image"
	GalleyXML   = "xml"
)

// Journal is a catalog collection that articles belong to.
type Journal struct {
	ID   int64
	Code string
	Name string
}

// Section groups articles of a journal.
type Section struct {
	ID        int64
	JournalID int64
	Name      string
}

// Keyword is shared across all articles.
type Keyword struct {
	ID   int64
	Word string
}

// License is a journal-scoped distribution license.
type License struct {
	ID        int64
	JournalID int64
	URL       string
	Name      string
	ShortName string
}

// Article is the reconciled record of one bepress document.
type Article struct {
	ID                     int64
	JournalID              int64
	Title                  string
	Abstract               string
	Stage                  string
	DatePublished          *time.Time
	DateSubmitted          *time.Time
	SectionID              *int64
	LicenseID              *int64
	Rights                 string
	PageNumbers            string
	TotalPages             int
	PublisherName          string
	PeerReviewed           bool
	CompetingInterests     string
	Language               string
	CorrespondenceAuthorID *int64
	PrimaryIssueID         *int64
	IsImport               bool
}

// ImportRecord maps a bepress id to the article it was imported as.
type ImportRecord struct {
	ID        int64
	JournalID int64
	DumpName  string
	BepressID string
	ArticleID *int64

	// Extra holds provenance of the last import (path, structure, source
	// URLs); persisted as protojson.
	Extra *structpb.Struct
}

// Identifier is an external identifier of an article, such as a DOI.
type Identifier struct {
	ID        int64
	ArticleID int64
	Type      string
	Value     string
}

// Note is a private editorial note on an article.
type Note struct {
	ID        int64
	ArticleID int64
	Text      string
}

// PublisherNote is a public note that may be shared between articles.
type PublisherNote struct {
	ID   int64
	Text string
}

// Account is a live user account an author is linked to.
type Account struct {
	ID          int64
	Email       string
	FirstName   string
	MiddleName  string
	LastName    string
	Institution string
}

// AuthorOrder places an account in an article's author list.
type AuthorOrder struct {
	ArticleID int64
	AccountID int64
	Order     int
}

// FrozenAuthor is the author exactly as published on an article,
// independent of later edits to the live account.
type FrozenAuthor struct {
	ID           int64
	ArticleID    int64
	AccountID    *int64
	Order        int
	FirstName    string
	MiddleName   string
	LastName     string
	NameSuffix   string
	Institution  string
	Email        string
	IsCorporate  bool
	DisplayEmail bool
}

// Issue is a volume/issue or an event collection.
type Issue struct {
	ID        int64
	JournalID int64
	Volume    int
	Number    int
	Title     string
	Type      string
	Date      *time.Time
}

// IssueKey identifies an issue for get-or-create.
type IssueKey struct {
	JournalID int64
	Volume    int
	Number    int
	Title     string
}

// Field is a journal-scoped custom metadata field.
type Field struct {
	ID        int64
	JournalID int64
	Name      string
	Kind      string
	Order     int
}

// FieldAnswer is an article's value for a custom field.
type FieldAnswer struct {
	ID        int64
	FieldID   int64
	ArticleID int64
	Answer    string
}

// Galley is a publishable rendition of an article's full text.
type Galley struct {
	ID          int64
	ArticleID   int64
	Kind        string
	Label       string
	Filename    string
	MimeType    string
	StoragePath string
	SourceURL   string
}

// SupplementaryFile is a non-galley attachment of an article.
type SupplementaryFile struct {
	ID          int64
	ArticleID   int64
	Label       string
	Filename    string
	MimeType    string
	StoragePath string
	SourceURL   string
}

// Book is a monograph whose chapters are bepress documents.
type Book struct {
	ID            int64
	Title         string
	Publisher     string
	Location      string
	DatePublished *time.Time
}

// Chapter is one chapter of a book.
type Chapter struct {
	ID             int64
	BookID         int64
	Title          string
	Description    string
	Sequence       int
	DatePublished  *time.Time
	Pages          string
	LicenseURL     string
	PublisherNotes string
	Filename       string
	StoragePath    string
}

// ImportedChapter maps a bepress id to the chapter it was imported as.
type ImportedChapter struct {
	BepressID string
	ChapterID int64
}

// Contributor is a book author.
type Contributor struct {
	ID          int64
	BookID      int64
	FirstName   string
	MiddleName  string
	LastName    string
	Affiliation string
	Email       string
	Sequence    int
}
