package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
)

// GetOrCreateJournal returns the journal with code, creating it with name.
func (s *Store) GetOrCreateJournal(ctx context.Context, code, name string) (*catalog.Journal, bool, error) {
	j := &catalog.Journal{}
	find := func() error {
		return s.queryRow(ctx, "SELECT id, code, name FROM journals WHERE code = ?", code).
			Scan(&j.ID, &j.Code, &j.Name)
	}
	created, err := s.getOrCreate(ctx, find,
		"INSERT INTO journals (code, name) VALUES (?, ?) ON CONFLICT DO NOTHING", code, name)
	if err != nil {
		return nil, false, fmt.Errorf("get or create journal %q: %w", code, err)
	}
	return j, created, nil
}

const importRecordColumns = "id, journal_id, dump_name, bepress_id, article_id, extra_json"

func scanImportRecord(row scanner) (*catalog.ImportRecord, error) {
	var (
		rec       catalog.ImportRecord
		articleID sql.NullInt64
		extra     string
	)
	if err := row.Scan(&rec.ID, &rec.JournalID, &rec.DumpName, &rec.BepressID, &articleID, &extra); err != nil {
		return nil, err
	}
	rec.ArticleID = idPtr(articleID)
	bag, err := catalog.UnmarshalExtra(extra)
	if err != nil {
		return nil, err
	}
	rec.Extra = bag
	return &rec, nil
}

// GetOrCreateImportRecord returns the mapping of bepressID in dumpName.
// A newly created record has no article yet.
func (s *Store) GetOrCreateImportRecord(ctx context.Context, journalID int64, dumpName, bepressID string) (*catalog.ImportRecord, bool, error) {
	var rec *catalog.ImportRecord
	find := func() error {
		r, err := scanImportRecord(s.queryRow(ctx,
			"SELECT "+importRecordColumns+" FROM import_records WHERE journal_id = ? AND dump_name = ? AND bepress_id = ?",
			journalID, dumpName, bepressID))
		if err != nil {
			return err
		}
		rec = r
		return nil
	}
	created, err := s.getOrCreate(ctx, find,
		"INSERT INTO import_records (journal_id, dump_name, bepress_id) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		journalID, dumpName, bepressID)
	if err != nil {
		return nil, false, fmt.Errorf("get or create import record %s/%s: %w", dumpName, bepressID, err)
	}
	return rec, created, nil
}

// SaveImportRecord persists the article link and provenance of rec.
func (s *Store) SaveImportRecord(ctx context.Context, rec *catalog.ImportRecord) error {
	extra, err := catalog.MarshalExtra(rec.Extra)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, "UPDATE import_records SET article_id = ?, extra_json = ? WHERE id = ?",
		nullableID(rec.ArticleID), extra, rec.ID)
	if err != nil {
		return fmt.Errorf("save import record %d: %w", rec.ID, err)
	}
	return nil
}

const articleColumns = `id, journal_id, title, abstract, stage, date_published, date_submitted,
	section_id, license_id, rights, page_numbers, total_pages, publisher_name, peer_reviewed,
	competing_interests, language, correspondence_author_id, primary_issue_id, is_import`

func scanArticle(row scanner) (*catalog.Article, error) {
	var (
		a                                     catalog.Article
		published, submitted                  sql.NullString
		sectionID, licenseID, correspID, issue sql.NullInt64
		peerReviewed, isImport                int
	)
	err := row.Scan(&a.ID, &a.JournalID, &a.Title, &a.Abstract, &a.Stage, &published, &submitted,
		&sectionID, &licenseID, &a.Rights, &a.PageNumbers, &a.TotalPages, &a.PublisherName, &peerReviewed,
		&a.CompetingInterests, &a.Language, &correspID, &issue, &isImport)
	if err != nil {
		return nil, err
	}
	a.DatePublished = parseTime(published)
	a.DateSubmitted = parseTime(submitted)
	a.SectionID = idPtr(sectionID)
	a.LicenseID = idPtr(licenseID)
	a.CorrespondenceAuthorID = idPtr(correspID)
	a.PrimaryIssueID = idPtr(issue)
	a.PeerReviewed = peerReviewed != 0
	a.IsImport = isImport != 0
	return &a, nil
}

// GetArticle returns the article with id or catalog.ErrNotFound.
func (s *Store) GetArticle(ctx context.Context, id int64) (*catalog.Article, error) {
	a, err := scanArticle(s.queryRow(ctx, "SELECT "+articleColumns+" FROM articles WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// SaveArticle inserts a (ID 0) or updates every column of an existing article.
func (s *Store) SaveArticle(ctx context.Context, a *catalog.Article) error {
	args := []any{
		a.JournalID, a.Title, a.Abstract, a.Stage, formatTime(a.DatePublished), formatTime(a.DateSubmitted),
		nullableID(a.SectionID), nullableID(a.LicenseID), a.Rights, a.PageNumbers, a.TotalPages,
		a.PublisherName, boolInt(a.PeerReviewed), a.CompetingInterests, a.Language,
		nullableID(a.CorrespondenceAuthorID), nullableID(a.PrimaryIssueID), boolInt(a.IsImport),
	}

	if a.ID == 0 {
		id, err := s.insertID(ctx, `INSERT INTO articles (journal_id, title, abstract, stage, date_published,
			date_submitted, section_id, license_id, rights, page_numbers, total_pages, publisher_name,
			peer_reviewed, competing_interests, language, correspondence_author_id, primary_issue_id, is_import)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
		if err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
		a.ID = id
		return nil
	}

	_, err := s.exec(ctx, `UPDATE articles SET journal_id = ?, title = ?, abstract = ?, stage = ?,
		date_published = ?, date_submitted = ?, section_id = ?, license_id = ?, rights = ?,
		page_numbers = ?, total_pages = ?, publisher_name = ?, peer_reviewed = ?,
		competing_interests = ?, language = ?, correspondence_author_id = ?, primary_issue_id = ?,
		is_import = ? WHERE id = ?`, append(args, a.ID)...)
	if err != nil {
		return fmt.Errorf("update article %d: %w", a.ID, err)
	}
	return nil
}

// CountArticles returns the number of articles in a journal.
func (s *Store) CountArticles(ctx context.Context, journalID int64) (int, error) {
	var n int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM articles WHERE journal_id = ?", journalID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}
