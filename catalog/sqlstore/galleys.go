package sqlstore

import (
	"context"
	"fmt"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
)

const galleyColumns = "id, article_id, kind, label, filename, mime_type, storage_path, source_url"

func scanGalley(row scanner) (*catalog.Galley, error) {
	var g catalog.Galley
	if err := row.Scan(&g.ID, &g.ArticleID, &g.Kind, &g.Label, &g.Filename, &g.MimeType, &g.StoragePath, &g.SourceURL); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGalley returns the article's galley of kind or catalog.ErrNotFound.
func (s *Store) GetGalley(ctx context.Context, articleID int64, kind string) (*catalog.Galley, error) {
	g, err := scanGalley(s.queryRow(ctx,
		"SELECT "+galleyColumns+" FROM galleys WHERE article_id = ? AND kind = ?", articleID, kind))
	if err != nil {
		return nil, notFound(err)
	}
	return g, nil
}

// UpdateOrCreateGalley writes the galley of g.Kind for g.ArticleID,
// replacing the file of an existing one.
func (s *Store) UpdateOrCreateGalley(ctx context.Context, g catalog.Galley) (*catalog.Galley, bool, error) {
	_, err := s.GetGalley(ctx, g.ArticleID, g.Kind)
	existed := err == nil

	_, err = s.exec(ctx, `INSERT INTO galleys (article_id, kind, label, filename, mime_type, storage_path, source_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (article_id, kind) DO UPDATE SET
			label = excluded.label,
			filename = excluded.filename,
			mime_type = excluded.mime_type,
			storage_path = excluded.storage_path,
			source_url = excluded.source_url`,
		g.ArticleID, g.Kind, g.Label, g.Filename, g.MimeType, g.StoragePath, g.SourceURL)
	if err != nil {
		return nil, false, fmt.Errorf("update or create %s galley: %w", g.Kind, err)
	}
	out, err := s.GetGalley(ctx, g.ArticleID, g.Kind)
	if err != nil {
		return nil, false, fmt.Errorf("reload %s galley: %w", g.Kind, err)
	}
	return out, !existed, nil
}

// ListGalleys returns all galleys of an article.
func (s *Store) ListGalleys(ctx context.Context, articleID int64) ([]catalog.Galley, error) {
	rows, err := s.query(ctx, "SELECT "+galleyColumns+" FROM galleys WHERE article_id = ? ORDER BY id", articleID)
	if err != nil {
		return nil, fmt.Errorf("list galleys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.Galley
	for rows.Next() {
		g, err := scanGalley(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

const suppColumns = "id, article_id, label, filename, mime_type, storage_path, source_url"

func scanSupplementaryFile(row scanner) (*catalog.SupplementaryFile, error) {
	var f catalog.SupplementaryFile
	if err := row.Scan(&f.ID, &f.ArticleID, &f.Label, &f.Filename, &f.MimeType, &f.StoragePath, &f.SourceURL); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetOrCreateSupplementaryFile returns the article attachment downloaded
// from f.SourceURL, creating it from f.
func (s *Store) GetOrCreateSupplementaryFile(ctx context.Context, f catalog.SupplementaryFile) (*catalog.SupplementaryFile, bool, error) {
	var out *catalog.SupplementaryFile
	find := func() error {
		got, err := scanSupplementaryFile(s.queryRow(ctx,
			"SELECT "+suppColumns+" FROM supplementary_files WHERE article_id = ? AND source_url = ?",
			f.ArticleID, f.SourceURL))
		if err != nil {
			return err
		}
		out = got
		return nil
	}
	created, err := s.getOrCreate(ctx, find,
		`INSERT INTO supplementary_files (article_id, label, filename, mime_type, storage_path, source_url)
		VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		f.ArticleID, f.Label, f.Filename, f.MimeType, f.StoragePath, f.SourceURL)
	if err != nil {
		return nil, false, fmt.Errorf("get or create supplementary file %q: %w", f.Filename, err)
	}
	return out, created, nil
}

// ListSupplementaryFiles returns all attachments of an article.
func (s *Store) ListSupplementaryFiles(ctx context.Context, articleID int64) ([]catalog.SupplementaryFile, error) {
	rows, err := s.query(ctx,
		"SELECT "+suppColumns+" FROM supplementary_files WHERE article_id = ? ORDER BY id", articleID)
	if err != nil {
		return nil, fmt.Errorf("list supplementary files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.SupplementaryFile
	for rows.Next() {
		f, err := scanSupplementaryFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}
