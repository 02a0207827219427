package reconcile

import (
	"context"
	"crypto/md5" //nolint:gosec // dummy emails only need a stable digest
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

// blankName stands in for a missing first or last name; the catalog
// requires both to be non-empty.
const blankName = " "

// AuthorReconciler links a document's authors to accounts and freezes the
// author list as published.
type AuthorReconciler struct {
	Store            catalog.AuthorStore
	DummyAccounts    bool
	DummyEmailDomain string
	Logger           *slog.Logger
}

// DummyEmail derives the synthetic account email of an author without one.
// The same author fields always yield the same address.
func DummyEmail(a hub.Author, domain string) string {
	sum := md5.Sum([]byte(a.String())) //nolint:gosec
	return hex.EncodeToString(sum[:]) + "@" + domain
}

func orBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return blankName
	}
	return s
}

// Reconcile processes doc.Authors in order. It returns the account of the
// first linked individual author, or nil when no author could be linked.
func (ar *AuthorReconciler) Reconcile(ctx context.Context, article *catalog.Article, doc *hub.Document) (*int64, error) {
	logger := ar.Logger
	if logger == nil {
		logger = slog.Default()
	}
	correspondingField, _ := doc.Fields.Get(hub.FieldCorrespondingAuthors)
	corresponding := correspondingEmails(correspondingField)

	var first *int64
	order := 0
	for _, author := range doc.Authors {
		if author.IsBlank() {
			continue
		}
		pos := order
		order++

		if author.IsCorporate {
			if strings.TrimSpace(author.Institution) == "" {
				logger.Warn("corporate author without a name", "external_id", doc.ExternalID)
				continue
			}
			if _, _, err := ar.Store.GetOrCreateCorporateAuthor(ctx, article.ID, author.Institution, pos); err != nil {
				return nil, fmt.Errorf("corporate author %q: %w", author.Institution, err)
			}
			continue
		}

		accountID, err := ar.linkAccount(ctx, article.ID, author, pos)
		if err != nil {
			return nil, err
		}
		if first == nil && accountID != nil {
			first = accountID
		}

		frozen := catalog.FrozenAuthor{
			ArticleID:   article.ID,
			AccountID:   accountID,
			Order:       pos,
			FirstName:   orBlank(author.FirstName),
			MiddleName:  author.MiddleName,
			LastName:    orBlank(author.LastName),
			NameSuffix:  author.Suffix,
			Institution: author.Institution,
			Email:       author.Email,
		}
		if corresponding[strings.ToLower(strings.TrimSpace(frozen.Email))] {
			frozen.DisplayEmail = true
		}
		if _, _, err := ar.Store.UpdateOrCreateFrozenAuthor(ctx, frozen); err != nil {
			return nil, fmt.Errorf("frozen author %d: %w", pos, err)
		}
	}
	return first, nil
}

// correspondingEmails splits a corresponding_authors value into a set of
// lower-cased addresses.
func correspondingEmails(value string) map[string]bool {
	set := make(map[string]bool)
	for _, addr := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	}) {
		set[strings.ToLower(addr)] = true
	}
	return set
}

// linkAccount resolves the author's account and places it in the author
// list. Authors without an email and without dummy accounts stay unlinked.
func (ar *AuthorReconciler) linkAccount(ctx context.Context, articleID int64, author hub.Author, pos int) (*int64, error) {
	email := strings.TrimSpace(author.Email)
	if email == "" && ar.DummyAccounts && ar.DummyEmailDomain != "" {
		email = DummyEmail(author, ar.DummyEmailDomain)
	}
	if email == "" {
		return nil, nil
	}

	account, _, err := ar.Store.GetOrCreateAccount(ctx, email, catalog.Account{
		FirstName:   orBlank(author.FirstName),
		MiddleName:  author.MiddleName,
		LastName:    orBlank(author.LastName),
		Institution: author.Institution,
	})
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", email, err)
	}
	if _, _, err := ar.Store.GetOrCreateAuthorOrder(ctx, articleID, account.ID, pos); err != nil {
		return nil, fmt.Errorf("author order for %s: %w", email, err)
	}
	return &account.ID, nil
}
