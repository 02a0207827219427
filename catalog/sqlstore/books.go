package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
)

func scanBook(row scanner) (*catalog.Book, error) {
	var (
		b    catalog.Book
		date sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Publisher, &b.Location, &date); err != nil {
		return nil, err
	}
	b.DatePublished = parseTime(date)
	return &b, nil
}

// GetOrCreateBook returns the book with title.
func (s *Store) GetOrCreateBook(ctx context.Context, title string) (*catalog.Book, bool, error) {
	var out *catalog.Book
	find := func() error {
		got, err := scanBook(s.queryRow(ctx,
			"SELECT id, title, publisher, location, date_published FROM books WHERE title = ?", title))
		if err != nil {
			return err
		}
		out = got
		return nil
	}
	created, err := s.getOrCreate(ctx, find, "INSERT INTO books (title) VALUES (?) ON CONFLICT DO NOTHING", title)
	if err != nil {
		return nil, false, fmt.Errorf("get or create book %q: %w", title, err)
	}
	return out, created, nil
}

// GetBook returns the book with id or catalog.ErrNotFound.
func (s *Store) GetBook(ctx context.Context, id int64) (*catalog.Book, error) {
	b, err := scanBook(s.queryRow(ctx,
		"SELECT id, title, publisher, location, date_published FROM books WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

// SaveBook updates the publication details of an existing book.
func (s *Store) SaveBook(ctx context.Context, b *catalog.Book) error {
	_, err := s.exec(ctx, "UPDATE books SET publisher = ?, location = ?, date_published = ? WHERE id = ?",
		b.Publisher, b.Location, formatTime(b.DatePublished), b.ID)
	if err != nil {
		return fmt.Errorf("save book %d: %w", b.ID, err)
	}
	return nil
}

// GetImportedChapter returns the chapter mapping of bepressID or catalog.ErrNotFound.
func (s *Store) GetImportedChapter(ctx context.Context, bepressID string) (*catalog.ImportedChapter, error) {
	ic := &catalog.ImportedChapter{}
	err := s.queryRow(ctx, "SELECT bepress_id, chapter_id FROM imported_chapters WHERE bepress_id = ?", bepressID).
		Scan(&ic.BepressID, &ic.ChapterID)
	if err != nil {
		return nil, notFound(err)
	}
	return ic, nil
}

// SaveImportedChapter records the chapter a bepress id was imported as.
func (s *Store) SaveImportedChapter(ctx context.Context, ic catalog.ImportedChapter) error {
	_, err := s.exec(ctx, `INSERT INTO imported_chapters (bepress_id, chapter_id) VALUES (?, ?)
		ON CONFLICT (bepress_id) DO UPDATE SET chapter_id = excluded.chapter_id`,
		ic.BepressID, ic.ChapterID)
	if err != nil {
		return fmt.Errorf("save imported chapter %s: %w", ic.BepressID, err)
	}
	return nil
}

const chapterColumns = `id, book_id, title, description, sequence, date_published, pages,
	license_url, publisher_notes, filename, storage_path`

func scanChapter(row scanner) (*catalog.Chapter, error) {
	var (
		c    catalog.Chapter
		date sql.NullString
	)
	err := row.Scan(&c.ID, &c.BookID, &c.Title, &c.Description, &c.Sequence, &date, &c.Pages,
		&c.LicenseURL, &c.PublisherNotes, &c.Filename, &c.StoragePath)
	if err != nil {
		return nil, err
	}
	c.DatePublished = parseTime(date)
	return &c, nil
}

// GetChapter returns the chapter with id or catalog.ErrNotFound.
func (s *Store) GetChapter(ctx context.Context, id int64) (*catalog.Chapter, error) {
	c, err := scanChapter(s.queryRow(ctx, "SELECT "+chapterColumns+" FROM chapters WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// SaveChapter inserts (ID 0) or updates a chapter.
func (s *Store) SaveChapter(ctx context.Context, c *catalog.Chapter) error {
	args := []any{
		c.BookID, c.Title, c.Description, c.Sequence, formatTime(c.DatePublished), c.Pages,
		c.LicenseURL, c.PublisherNotes, c.Filename, c.StoragePath,
	}
	if c.ID == 0 {
		id, err := s.insertID(ctx, `INSERT INTO chapters (book_id, title, description, sequence, date_published,
			pages, license_url, publisher_notes, filename, storage_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
		if err != nil {
			return fmt.Errorf("insert chapter: %w", err)
		}
		c.ID = id
		return nil
	}
	_, err := s.exec(ctx, `UPDATE chapters SET book_id = ?, title = ?, description = ?, sequence = ?,
		date_published = ?, pages = ?, license_url = ?, publisher_notes = ?, filename = ?, storage_path = ?
		WHERE id = ?`, append(args, c.ID)...)
	if err != nil {
		return fmt.Errorf("update chapter %d: %w", c.ID, err)
	}
	return nil
}

// Chapters returns a book's chapters in sequence order.
func (s *Store) Chapters(ctx context.Context, bookID int64) ([]catalog.Chapter, error) {
	rows, err := s.query(ctx,
		"SELECT "+chapterColumns+" FROM chapters WHERE book_id = ? ORDER BY sequence, id", bookID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.Chapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

const contributorColumns = "id, book_id, first_name, middle_name, last_name, affiliation, email, sequence"

func scanContributor(row scanner) (*catalog.Contributor, error) {
	var c catalog.Contributor
	if err := row.Scan(&c.ID, &c.BookID, &c.FirstName, &c.MiddleName, &c.LastName, &c.Affiliation, &c.Email, &c.Sequence); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateContributor returns the book contributor matching every name
// and contact attribute of c.
func (s *Store) GetOrCreateContributor(ctx context.Context, c catalog.Contributor) (*catalog.Contributor, bool, error) {
	var out *catalog.Contributor
	find := func() error {
		got, err := scanContributor(s.queryRow(ctx,
			`SELECT `+contributorColumns+` FROM contributors WHERE book_id = ? AND first_name = ?
			AND middle_name = ? AND last_name = ? AND affiliation = ? AND email = ?`,
			c.BookID, c.FirstName, c.MiddleName, c.LastName, c.Affiliation, c.Email))
		if err != nil {
			return err
		}
		out = got
		return nil
	}
	created, err := s.getOrCreate(ctx, find,
		`INSERT INTO contributors (book_id, first_name, middle_name, last_name, affiliation, email, sequence)
		VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		c.BookID, c.FirstName, c.MiddleName, c.LastName, c.Affiliation, c.Email, c.Sequence)
	if err != nil {
		return nil, false, fmt.Errorf("get or create contributor: %w", err)
	}
	return out, created, nil
}

// AddChapterContributor links a contributor to a chapter.
func (s *Store) AddChapterContributor(ctx context.Context, chapterID, contributorID int64) error {
	_, err := s.exec(ctx,
		"INSERT INTO chapter_contributors (chapter_id, contributor_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		chapterID, contributorID)
	if err != nil {
		return fmt.Errorf("add chapter contributor: %w", err)
	}
	return nil
}

// ChapterContributors returns the contributors of a chapter in sequence order.
func (s *Store) ChapterContributors(ctx context.Context, chapterID int64) ([]catalog.Contributor, error) {
	rows, err := s.query(ctx, `SELECT c.id, c.book_id, c.first_name, c.middle_name, c.last_name,
		c.affiliation, c.email, c.sequence FROM contributors c
		JOIN chapter_contributors cc ON cc.contributor_id = c.id
		WHERE cc.chapter_id = ? ORDER BY c.sequence, c.id`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("list chapter contributors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.Contributor
	for rows.Next() {
		c, err := scanContributor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
