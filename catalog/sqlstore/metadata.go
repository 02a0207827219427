package sqlstore

import (
	"context"
	"fmt"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
)

// GetOrCreateSection returns the named section of a journal.
func (s *Store) GetOrCreateSection(ctx context.Context, journalID int64, name string) (*catalog.Section, bool, error) {
	sec := &catalog.Section{}
	find := func() error {
		return s.queryRow(ctx, "SELECT id, journal_id, name FROM sections WHERE journal_id = ? AND name = ?", journalID, name).
			Scan(&sec.ID, &sec.JournalID, &sec.Name)
	}
	created, err := s.getOrCreate(ctx, find,
		"INSERT INTO sections (journal_id, name) VALUES (?, ?) ON CONFLICT DO NOTHING", journalID, name)
	if err != nil {
		return nil, false, fmt.Errorf("get or create section %q: %w", name, err)
	}
	return sec, created, nil
}

// GetOrCreateKeyword returns the shared keyword with word.
func (s *Store) GetOrCreateKeyword(ctx context.Context, word string) (*catalog.Keyword, bool, error) {
	kw := &catalog.Keyword{}
	find := func() error {
		return s.queryRow(ctx, "SELECT id, word FROM keywords WHERE word = ?", word).Scan(&kw.ID, &kw.Word)
	}
	created, err := s.getOrCreate(ctx, find,
		"INSERT INTO keywords (word) VALUES (?) ON CONFLICT DO NOTHING", word)
	if err != nil {
		return nil, false, fmt.Errorf("get or create keyword %q: %w", word, err)
	}
	return kw, created, nil
}

// AddArticleKeyword links a keyword to an article at position order.
// An existing link keeps its original position.
func (s *Store) AddArticleKeyword(ctx context.Context, articleID, keywordID int64, order int) error {
	_, err := s.exec(ctx,
		"INSERT INTO article_keywords (article_id, keyword_id, position) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		articleID, keywordID, order)
	if err != nil {
		return fmt.Errorf("add article keyword: %w", err)
	}
	return nil
}

// ArticleKeywords returns the keywords of an article in position order.
func (s *Store) ArticleKeywords(ctx context.Context, articleID int64) ([]catalog.Keyword, error) {
	rows, err := s.query(ctx, `SELECT k.id, k.word FROM keywords k
		JOIN article_keywords ak ON ak.keyword_id = k.id
		WHERE ak.article_id = ? ORDER BY ak.position, k.id`, articleID)
	if err != nil {
		return nil, fmt.Errorf("list article keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.Keyword
	for rows.Next() {
		var kw catalog.Keyword
		if err := rows.Scan(&kw.ID, &kw.Word); err != nil {
			return nil, err
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

// GetOrCreateLicense returns the journal license with url, creating it from
// defaults when absent.
func (s *Store) GetOrCreateLicense(ctx context.Context, journalID int64, url string, defaults catalog.License) (*catalog.License, bool, error) {
	lic := &catalog.License{}
	find := func() error {
		return s.queryRow(ctx,
			"SELECT id, journal_id, url, name, short_name FROM licenses WHERE journal_id = ? AND url = ?", journalID, url).
			Scan(&lic.ID, &lic.JournalID, &lic.URL, &lic.Name, &lic.ShortName)
	}
	created, err := s.getOrCreate(ctx, find,
		"INSERT INTO licenses (journal_id, url, name, short_name) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING",
		journalID, url, defaults.Name, defaults.ShortName)
	if err != nil {
		return nil, false, fmt.Errorf("get or create license %q: %w", url, err)
	}
	return lic, created, nil
}

// GetLicense returns the first journal license with shortName.
func (s *Store) GetLicense(ctx context.Context, journalID int64, shortName string) (*catalog.License, error) {
	lic := &catalog.License{}
	err := s.queryRow(ctx,
		"SELECT id, journal_id, url, name, short_name FROM licenses WHERE journal_id = ? AND short_name = ? ORDER BY id LIMIT 1",
		journalID, shortName).
		Scan(&lic.ID, &lic.JournalID, &lic.URL, &lic.Name, &lic.ShortName)
	if err != nil {
		return nil, notFound(err)
	}
	return lic, nil
}

// GetOrCreateIdentifier returns the identifier of idType and value on an article.
func (s *Store) GetOrCreateIdentifier(ctx context.Context, articleID int64, idType, value string) (*catalog.Identifier, bool, error) {
	ident := &catalog.Identifier{}
	find := func() error {
		return s.queryRow(ctx,
			"SELECT id, article_id, id_type, value FROM identifiers WHERE article_id = ? AND id_type = ? AND value = ?",
			articleID, idType, value).
			Scan(&ident.ID, &ident.ArticleID, &ident.Type, &ident.Value)
	}
	created, err := s.getOrCreate(ctx, find,
		"INSERT INTO identifiers (article_id, id_type, value) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		articleID, idType, value)
	if err != nil {
		return nil, false, fmt.Errorf("get or create identifier %s: %w", idType, err)
	}
	return ident, created, nil
}

// GetOrCreateNote returns the article note with text.
func (s *Store) GetOrCreateNote(ctx context.Context, articleID int64, text string) (*catalog.Note, bool, error) {
	note := &catalog.Note{}
	find := func() error {
		return s.queryRow(ctx, "SELECT id, article_id, text FROM notes WHERE article_id = ? AND text = ?", articleID, text).
			Scan(&note.ID, &note.ArticleID, &note.Text)
	}
	created, err := s.getOrCreate(ctx, find,
		"INSERT INTO notes (article_id, text) VALUES (?, ?) ON CONFLICT DO NOTHING", articleID, text)
	if err != nil {
		return nil, false, fmt.Errorf("get or create note: %w", err)
	}
	return note, created, nil
}

// GetOrCreatePublisherNote returns the shared publisher note with text.
func (s *Store) GetOrCreatePublisherNote(ctx context.Context, text string) (*catalog.PublisherNote, bool, error) {
	note := &catalog.PublisherNote{}
	find := func() error {
		return s.queryRow(ctx, "SELECT id, text FROM publisher_notes WHERE text = ?", text).Scan(&note.ID, &note.Text)
	}
	created, err := s.getOrCreate(ctx, find,
		"INSERT INTO publisher_notes (text) VALUES (?) ON CONFLICT DO NOTHING", text)
	if err != nil {
		return nil, false, fmt.Errorf("get or create publisher note: %w", err)
	}
	return note, created, nil
}

// AddArticlePublisherNote links a publisher note to an article.
func (s *Store) AddArticlePublisherNote(ctx context.Context, articleID, noteID int64) error {
	_, err := s.exec(ctx,
		"INSERT INTO article_publisher_notes (article_id, note_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		articleID, noteID)
	if err != nil {
		return fmt.Errorf("add article publisher note: %w", err)
	}
	return nil
}

// GetOrCreateField returns the journal's custom field with name.
func (s *Store) GetOrCreateField(ctx context.Context, journalID int64, name string, defaults catalog.Field) (*catalog.Field, bool, error) {
	f := &catalog.Field{}
	find := func() error {
		return s.queryRow(ctx,
			"SELECT id, journal_id, name, kind, field_order FROM fields WHERE journal_id = ? AND name = ?", journalID, name).
			Scan(&f.ID, &f.JournalID, &f.Name, &f.Kind, &f.Order)
	}
	kind := defaults.Kind
	if kind == "" {
		kind = "text"
	}
	created, err := s.getOrCreate(ctx, find,
		"INSERT INTO fields (journal_id, name, kind, field_order) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING",
		journalID, name, kind, defaults.Order)
	if err != nil {
		return nil, false, fmt.Errorf("get or create field %q: %w", name, err)
	}
	return f, created, nil
}

// UpdateOrCreateFieldAnswer sets an article's answer for a custom field.
func (s *Store) UpdateOrCreateFieldAnswer(ctx context.Context, fieldID, articleID int64, answer string) (*catalog.FieldAnswer, bool, error) {
	fa := &catalog.FieldAnswer{}
	find := func() error {
		return s.queryRow(ctx,
			"SELECT id, field_id, article_id, answer FROM field_answers WHERE field_id = ? AND article_id = ?", fieldID, articleID).
			Scan(&fa.ID, &fa.FieldID, &fa.ArticleID, &fa.Answer)
	}
	existed := find() == nil

	_, err := s.exec(ctx, `INSERT INTO field_answers (field_id, article_id, answer) VALUES (?, ?, ?)
		ON CONFLICT (field_id, article_id) DO UPDATE SET answer = excluded.answer`,
		fieldID, articleID, answer)
	if err != nil {
		return nil, false, fmt.Errorf("update or create field answer: %w", err)
	}
	if err := find(); err != nil {
		return nil, false, fmt.Errorf("reload field answer: %w", err)
	}
	return fa, !existed, nil
}
