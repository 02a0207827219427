package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
)

func scanIssue(row scanner) (*catalog.Issue, error) {
	var (
		is   catalog.Issue
		date sql.NullString
	)
	if err := row.Scan(&is.ID, &is.JournalID, &is.Volume, &is.Number, &is.Title, &is.Type, &date); err != nil {
		return nil, err
	}
	is.Date = parseTime(date)
	return &is, nil
}

// GetOrCreateIssue returns the issue matching key, creating it with the
// type and date of defaults.
func (s *Store) GetOrCreateIssue(ctx context.Context, key catalog.IssueKey, defaults catalog.Issue) (*catalog.Issue, bool, error) {
	var out *catalog.Issue
	find := func() error {
		got, err := scanIssue(s.queryRow(ctx,
			`SELECT id, journal_id, volume, number, title, issue_type, issue_date FROM issues
			WHERE journal_id = ? AND volume = ? AND number = ? AND title = ?`,
			key.JournalID, key.Volume, key.Number, key.Title))
		if err != nil {
			return err
		}
		out = got
		return nil
	}
	issueType := defaults.Type
	if issueType == "" {
		issueType = catalog.IssueTypeIssue
	}
	created, err := s.getOrCreate(ctx, find,
		`INSERT INTO issues (journal_id, volume, number, title, issue_type, issue_date)
		VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		key.JournalID, key.Volume, key.Number, key.Title, issueType, formatTime(defaults.Date))
	if err != nil {
		return nil, false, fmt.Errorf("get or create issue %d/%d %q: %w", key.Volume, key.Number, key.Title, err)
	}
	return out, created, nil
}

// SaveIssue updates the type and date of an existing issue.
func (s *Store) SaveIssue(ctx context.Context, issue *catalog.Issue) error {
	_, err := s.exec(ctx, "UPDATE issues SET issue_type = ?, issue_date = ? WHERE id = ?",
		issue.Type, formatTime(issue.Date), issue.ID)
	if err != nil {
		return fmt.Errorf("save issue %d: %w", issue.ID, err)
	}
	return nil
}

// AddIssueArticle places an article in an issue.
func (s *Store) AddIssueArticle(ctx context.Context, issueID, articleID int64) error {
	_, err := s.exec(ctx,
		"INSERT INTO issue_articles (issue_id, article_id) VALUES (?, ?) ON CONFLICT DO NOTHING", issueID, articleID)
	if err != nil {
		return fmt.Errorf("add issue article: %w", err)
	}
	return nil
}

// IssueArticles returns the ids of the articles placed in an issue.
func (s *Store) IssueArticles(ctx context.Context, issueID int64) ([]int64, error) {
	rows, err := s.query(ctx, "SELECT article_id FROM issue_articles WHERE issue_id = ? ORDER BY article_id", issueID)
	if err != nil {
		return nil, fmt.Errorf("list issue articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
