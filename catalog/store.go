package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get operations when no entity matches.
var ErrNotFound = errors.New("catalog: not found")

// The store contract is expressed as get-or-create, update-or-create and
// get operations. Get-or-create never modifies an existing entity;
// update-or-create overwrites the non-key attributes. Every operation is
// idempotent so that re-running an import converges.

// JournalStore persists journals.
type JournalStore interface {
	GetOrCreateJournal(ctx context.Context, code, name string) (*Journal, bool, error)
}

// ArticleStore persists articles and their import mappings.
type ArticleStore interface {
	GetOrCreateImportRecord(ctx context.Context, journalID int64, dumpName, bepressID string) (*ImportRecord, bool, error)
	SaveImportRecord(ctx context.Context, rec *ImportRecord) error
	GetArticle(ctx context.Context, id int64) (*Article, error)
	SaveArticle(ctx context.Context, a *Article) error
	CountArticles(ctx context.Context, journalID int64) (int, error)
}

// MetadataStore persists the vocabularies and notes attached to articles.
type MetadataStore interface {
	GetOrCreateSection(ctx context.Context, journalID int64, name string) (*Section, bool, error)
	GetOrCreateKeyword(ctx context.Context, word string) (*Keyword, bool, error)
	AddArticleKeyword(ctx context.Context, articleID, keywordID int64, order int) error
	ArticleKeywords(ctx context.Context, articleID int64) ([]Keyword, error)
	GetOrCreateLicense(ctx context.Context, journalID int64, url string, defaults License) (*License, bool, error)
	GetLicense(ctx context.Context, journalID int64, shortName string) (*License, error)
	GetOrCreateIdentifier(ctx context.Context, articleID int64, idType, value string) (*Identifier, bool, error)
	GetOrCreateNote(ctx context.Context, articleID int64, text string) (*Note, bool, error)
	GetOrCreatePublisherNote(ctx context.Context, text string) (*PublisherNote, bool, error)
	AddArticlePublisherNote(ctx context.Context, articleID, noteID int64) error
	GetOrCreateField(ctx context.Context, journalID int64, name string, defaults Field) (*Field, bool, error)
	UpdateOrCreateFieldAnswer(ctx context.Context, fieldID, articleID int64, answer string) (*FieldAnswer, bool, error)
}

// AuthorStore persists accounts and author snapshots.
type AuthorStore interface {
	GetOrCreateAccount(ctx context.Context, email string, defaults Account) (*Account, bool, error)
	GetOrCreateAuthorOrder(ctx context.Context, articleID, accountID int64, order int) (*AuthorOrder, bool, error)
	UpdateOrCreateFrozenAuthor(ctx context.Context, fa FrozenAuthor) (*FrozenAuthor, bool, error)
	GetOrCreateCorporateAuthor(ctx context.Context, articleID int64, institution string, order int) (*FrozenAuthor, bool, error)
	ArticleAuthorOrders(ctx context.Context, articleID int64) ([]AuthorOrder, error)
	FrozenAuthors(ctx context.Context, articleID int64) ([]FrozenAuthor, error)
}

// IssueStore persists issues and article placement.
type IssueStore interface {
	GetOrCreateIssue(ctx context.Context, key IssueKey, defaults Issue) (*Issue, bool, error)
	SaveIssue(ctx context.Context, issue *Issue) error
	AddIssueArticle(ctx context.Context, issueID, articleID int64) error
	IssueArticles(ctx context.Context, issueID int64) ([]int64, error)
}

// GalleyStore persists galleys and supplementary files.
type GalleyStore interface {
	GetGalley(ctx context.Context, articleID int64, kind string) (*Galley, error)
	UpdateOrCreateGalley(ctx context.Context, g Galley) (*Galley, bool, error)
	ListGalleys(ctx context.Context, articleID int64) ([]Galley, error)
	GetOrCreateSupplementaryFile(ctx context.Context, f SupplementaryFile) (*SupplementaryFile, bool, error)
	ListSupplementaryFiles(ctx context.Context, articleID int64) ([]SupplementaryFile, error)
}

// BookStore persists books, chapters and contributors.
type BookStore interface {
	GetOrCreateBook(ctx context.Context, title string) (*Book, bool, error)
	GetBook(ctx context.Context, id int64) (*Book, error)
	SaveBook(ctx context.Context, b *Book) error
	GetImportedChapter(ctx context.Context, bepressID string) (*ImportedChapter, error)
	SaveImportedChapter(ctx context.Context, ic ImportedChapter) error
	GetChapter(ctx context.Context, id int64) (*Chapter, error)
	SaveChapter(ctx context.Context, c *Chapter) error
	Chapters(ctx context.Context, bookID int64) ([]Chapter, error)
	GetOrCreateContributor(ctx context.Context, c Contributor) (*Contributor, bool, error)
	AddChapterContributor(ctx context.Context, chapterID, contributorID int64) error
	ChapterContributors(ctx context.Context, chapterID int64) ([]Contributor, error)
}

// Store is the full catalog contract.
type Store interface {
	JournalStore
	ArticleStore
	MetadataStore
	AuthorStore
	IssueStore
	GalleyStore
	BookStore
	Close() error
}
