package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/fetch"
	"github.com/lehigh-university-libraries/bepress-migrate/helpers"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

// Downloader fetches remote payloads.
type Downloader interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// BookFiles stores chapter payloads.
type BookFiles interface {
	SaveBookFile(bookID int64, filename string, data []byte) (string, error)
}

// BookImporter imports documents of a books export as chapters. Books are
// keyed by publication title, chapters by bepress id.
type BookImporter struct {
	Store  catalog.BookStore
	Fetch  Downloader
	Files  BookFiles
	Logger *slog.Logger
}

func (bi *BookImporter) logger() *slog.Logger {
	if bi.Logger == nil {
		return slog.Default()
	}
	return bi.Logger
}

// ImportChapter creates or updates the chapter for doc and its book.
func (bi *BookImporter) ImportChapter(ctx context.Context, doc *hub.Document) (*catalog.Book, *catalog.Chapter, error) {
	if doc.ExternalID == "" {
		return nil, nil, errors.New("document has no external id")
	}
	logger := bi.logger().With("external_id", doc.ExternalID)

	var (
		book    *catalog.Book
		chapter *catalog.Chapter
	)
	imported, err := bi.Store.GetImportedChapter(ctx, doc.ExternalID)
	switch {
	case err == nil:
		if chapter, err = bi.Store.GetChapter(ctx, imported.ChapterID); err != nil {
			return nil, nil, fmt.Errorf("loading chapter %d: %w", imported.ChapterID, err)
		}
		if book, err = bi.Store.GetBook(ctx, chapter.BookID); err != nil {
			return nil, nil, fmt.Errorf("loading book %d: %w", chapter.BookID, err)
		}
	case errors.Is(err, catalog.ErrNotFound):
		title := strings.TrimSpace(doc.PublicationTitle)
		if title == "" {
			return nil, nil, errors.New("chapter has no publication title")
		}
		if book, _, err = bi.Store.GetOrCreateBook(ctx, title); err != nil {
			return nil, nil, err
		}
		chapter = &catalog.Chapter{BookID: book.ID}
	default:
		return nil, nil, err
	}

	chapter.Title = doc.Title
	chapter.Description = doc.Abstract
	if seq, ok := helpers.LeadingInt(doc.Label); ok {
		chapter.Sequence = seq
	}
	chapter.DatePublished = doc.PublishedAt
	if doc.LicenseURL != "" {
		chapter.LicenseURL = doc.LicenseURL
	}
	if comments, ok := doc.Fields.Get(hub.FieldComments); ok {
		chapter.PublisherNotes = comments
	}

	if doc.FulltextURL != "" && chapter.StoragePath == "" {
		bi.attachFile(ctx, logger, book, chapter, doc.FulltextURL)
	}

	created := chapter.ID == 0
	if err := bi.Store.SaveChapter(ctx, chapter); err != nil {
		return nil, nil, err
	}
	if created {
		if err := bi.Store.SaveImportedChapter(ctx, catalog.ImportedChapter{BepressID: doc.ExternalID, ChapterID: chapter.ID}); err != nil {
			return nil, nil, err
		}
		logger.Info("imported chapter", "book", book.Title, "chapter_id", chapter.ID)
	} else {
		logger.Info("updated chapter", "book", book.Title, "chapter_id", chapter.ID)
	}

	if err := bi.contributors(ctx, logger, book, chapter, doc); err != nil {
		return nil, nil, err
	}

	if v, ok := doc.Fields.Get(hub.FieldPublisher); ok {
		book.Publisher = v
	}
	if v, ok := doc.Fields.Get(hub.FieldCity); ok {
		book.Location = v
	}
	if err := bi.Store.SaveBook(ctx, book); err != nil {
		return nil, nil, err
	}
	return book, chapter, nil
}

func (bi *BookImporter) attachFile(ctx context.Context, logger *slog.Logger, book *catalog.Book, chapter *catalog.Chapter, url string) {
	if bi.Fetch == nil || bi.Files == nil {
		return
	}
	resp, err := bi.Fetch.Get(ctx, url)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		logger.Warn("could not fetch chapter file", "url", url, "error", err)
		return
	}
	filename := resp.Filename()
	if filename == "" {
		filename = uuid.NewString() + ".pdf"
	}
	rel, err := bi.Files.SaveBookFile(book.ID, filename, resp.Body)
	if err != nil {
		logger.Warn("could not store chapter file", "url", url, "error", err)
		return
	}
	chapter.Filename = filename
	chapter.StoragePath = rel
}

func (bi *BookImporter) contributors(ctx context.Context, logger *slog.Logger, book *catalog.Book, chapter *catalog.Chapter, doc *hub.Document) error {
	seq := 0
	for _, author := range doc.Authors {
		if author.IsBlank() {
			continue
		}
		seq++
		c := catalog.Contributor{
			BookID:      book.ID,
			FirstName:   orBlank(author.FirstName),
			MiddleName:  author.MiddleName,
			LastName:    orBlank(author.LastName),
			Affiliation: author.Institution,
			Email:       author.Email,
			Sequence:    seq,
		}
		if author.IsCorporate {
			c.FirstName, c.LastName = blankName, author.Institution
		}
		contributor, created, err := bi.Store.GetOrCreateContributor(ctx, c)
		if err != nil {
			return fmt.Errorf("contributor %d: %w", seq, err)
		}
		if created {
			logger.Info("added contributor to book", "contributor", author.DisplayName(), "book", book.Title)
		}
		if err := bi.Store.AddChapterContributor(ctx, chapter.ID, contributor.ID); err != nil {
			return err
		}
	}
	return nil
}

// DateBooks sets each book's publication date to that of its first chapter
// by sequence and returns how many books were dated. Books without chapters
// are left alone.
func (bi *BookImporter) DateBooks(ctx context.Context, bookIDs []int64) (int, error) {
	dated := 0
	for _, id := range bookIDs {
		book, err := bi.Store.GetBook(ctx, id)
		if err != nil {
			return dated, fmt.Errorf("loading book %d: %w", id, err)
		}
		chapters, err := bi.Store.Chapters(ctx, id)
		if err != nil {
			return dated, err
		}
		if len(chapters) == 0 {
			continue
		}
		book.DatePublished = chapters[0].DatePublished
		if err := bi.Store.SaveBook(ctx, book); err != nil {
			return dated, err
		}
		dated++
		bi.logger().Info("dated book from first chapter", "book", book.Title, "date", book.DatePublished)
	}
	return dated, nil
}
