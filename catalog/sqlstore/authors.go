package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
)

// GetOrCreateAccount returns the account with email, creating it from
// defaults. Existing accounts are never modified.
func (s *Store) GetOrCreateAccount(ctx context.Context, email string, defaults catalog.Account) (*catalog.Account, bool, error) {
	acct := &catalog.Account{}
	find := func() error {
		return s.queryRow(ctx,
			"SELECT id, email, first_name, middle_name, last_name, institution FROM accounts WHERE email = ?", email).
			Scan(&acct.ID, &acct.Email, &acct.FirstName, &acct.MiddleName, &acct.LastName, &acct.Institution)
	}
	created, err := s.getOrCreate(ctx, find,
		`INSERT INTO accounts (email, first_name, middle_name, last_name, institution)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		email, defaults.FirstName, defaults.MiddleName, defaults.LastName, defaults.Institution)
	if err != nil {
		return nil, false, fmt.Errorf("get or create account %q: %w", email, err)
	}
	return acct, created, nil
}

// GetOrCreateAuthorOrder places an account in an article's author list.
// An existing placement keeps its original order.
func (s *Store) GetOrCreateAuthorOrder(ctx context.Context, articleID, accountID int64, order int) (*catalog.AuthorOrder, bool, error) {
	ao := &catalog.AuthorOrder{}
	find := func() error {
		return s.queryRow(ctx,
			"SELECT article_id, account_id, author_order FROM author_orders WHERE article_id = ? AND account_id = ?",
			articleID, accountID).
			Scan(&ao.ArticleID, &ao.AccountID, &ao.Order)
	}
	created, err := s.getOrCreate(ctx, find,
		"INSERT INTO author_orders (article_id, account_id, author_order) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		articleID, accountID, order)
	if err != nil {
		return nil, false, fmt.Errorf("get or create author order: %w", err)
	}
	return ao, created, nil
}

// ArticleAuthorOrders returns an article's author placements in order.
func (s *Store) ArticleAuthorOrders(ctx context.Context, articleID int64) ([]catalog.AuthorOrder, error) {
	rows, err := s.query(ctx,
		"SELECT article_id, account_id, author_order FROM author_orders WHERE article_id = ? ORDER BY author_order, account_id",
		articleID)
	if err != nil {
		return nil, fmt.Errorf("list author orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.AuthorOrder
	for rows.Next() {
		var ao catalog.AuthorOrder
		if err := rows.Scan(&ao.ArticleID, &ao.AccountID, &ao.Order); err != nil {
			return nil, err
		}
		out = append(out, ao)
	}
	return out, rows.Err()
}

const frozenColumns = `id, article_id, account_id, author_order, first_name, middle_name, last_name,
	name_suffix, institution, email, is_corporate, display_email`

func scanFrozenAuthor(row scanner) (*catalog.FrozenAuthor, error) {
	var (
		fa                   catalog.FrozenAuthor
		accountID            sql.NullInt64
		corporate, showEmail int
	)
	err := row.Scan(&fa.ID, &fa.ArticleID, &accountID, &fa.Order, &fa.FirstName, &fa.MiddleName, &fa.LastName,
		&fa.NameSuffix, &fa.Institution, &fa.Email, &corporate, &showEmail)
	if err != nil {
		return nil, err
	}
	fa.AccountID = idPtr(accountID)
	fa.IsCorporate = corporate != 0
	fa.DisplayEmail = showEmail != 0
	return &fa, nil
}

// UpdateOrCreateFrozenAuthor writes the individual author snapshot at
// (fa.ArticleID, fa.Order), overwriting any previous snapshot there.
func (s *Store) UpdateOrCreateFrozenAuthor(ctx context.Context, fa catalog.FrozenAuthor) (*catalog.FrozenAuthor, bool, error) {
	var out *catalog.FrozenAuthor
	find := func() error {
		got, err := scanFrozenAuthor(s.queryRow(ctx,
			"SELECT "+frozenColumns+" FROM frozen_authors WHERE article_id = ? AND author_order = ? AND is_corporate = 0",
			fa.ArticleID, fa.Order))
		if err != nil {
			return err
		}
		out = got
		return nil
	}
	existed := find() == nil

	_, err := s.exec(ctx, `INSERT INTO frozen_authors (article_id, account_id, author_order, first_name,
		middle_name, last_name, name_suffix, institution, email, is_corporate, display_email)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT (article_id, author_order) WHERE is_corporate = 0 DO UPDATE SET
			account_id = excluded.account_id,
			first_name = excluded.first_name,
			middle_name = excluded.middle_name,
			last_name = excluded.last_name,
			name_suffix = excluded.name_suffix,
			institution = excluded.institution,
			email = excluded.email,
			display_email = excluded.display_email`,
		fa.ArticleID, nullableID(fa.AccountID), fa.Order, fa.FirstName, fa.MiddleName, fa.LastName,
		fa.NameSuffix, fa.Institution, fa.Email, boolInt(fa.DisplayEmail))
	if err != nil {
		return nil, false, fmt.Errorf("update or create frozen author: %w", err)
	}
	if err := find(); err != nil {
		return nil, false, fmt.Errorf("reload frozen author: %w", err)
	}
	return out, !existed, nil
}

// GetOrCreateCorporateAuthor returns the corporate author snapshot for
// institution on an article.
func (s *Store) GetOrCreateCorporateAuthor(ctx context.Context, articleID int64, institution string, order int) (*catalog.FrozenAuthor, bool, error) {
	var out *catalog.FrozenAuthor
	find := func() error {
		got, err := scanFrozenAuthor(s.queryRow(ctx,
			"SELECT "+frozenColumns+" FROM frozen_authors WHERE article_id = ? AND institution = ? AND is_corporate = 1",
			articleID, institution))
		if err != nil {
			return err
		}
		out = got
		return nil
	}
	created, err := s.getOrCreate(ctx, find,
		`INSERT INTO frozen_authors (article_id, author_order, institution, is_corporate)
		VALUES (?, ?, ?, 1) ON CONFLICT DO NOTHING`,
		articleID, order, institution)
	if err != nil {
		return nil, false, fmt.Errorf("get or create corporate author %q: %w", institution, err)
	}
	return out, created, nil
}

// FrozenAuthors returns an article's author snapshots in order.
func (s *Store) FrozenAuthors(ctx context.Context, articleID int64) ([]catalog.FrozenAuthor, error) {
	rows, err := s.query(ctx,
		"SELECT "+frozenColumns+" FROM frozen_authors WHERE article_id = ? ORDER BY author_order, id", articleID)
	if err != nil {
		return nil, fmt.Errorf("list frozen authors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.FrozenAuthor
	for rows.Next() {
		fa, err := scanFrozenAuthor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *fa)
	}
	return out, rows.Err()
}
