// Package reconcile maps parsed bepress documents onto catalog records.
//
// Every write goes through the get-or-create / update-or-create operations
// of catalog.Store and is keyed off the bepress id or a stable hash, so a
// batch can be re-run until it converges.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

// Scope identifies the export and journal an import runs against.
type Scope struct {
	DumpName  string
	JournalID int64
}

// Options configures a Resolver.
type Options struct {
	// SectionField names a generic field holding the section title.
	SectionField string
	// DefaultSection is used when a document names no section.
	DefaultSection string

	// DummyAccounts synthesizes an account email for authors without one.
	DummyAccounts    bool
	DummyEmailDomain string

	Logger *slog.Logger

	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Result describes one imported document.
type Result struct {
	Article *catalog.Article
	Record  *catalog.ImportRecord
	Created bool
}

// Resolver imports documents into articles.
type Resolver struct {
	store   catalog.Store
	opts    Options
	authors *AuthorReconciler
	logger  *slog.Logger
}

// NewResolver creates a Resolver over store.
func NewResolver(store catalog.Store, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger = logger.With("component", "reconcile")
	return &Resolver{
		store: store,
		opts:  opts,
		authors: &AuthorReconciler{
			Store:            store,
			DummyAccounts:    opts.DummyAccounts,
			DummyEmailDomain: opts.DummyEmailDomain,
			Logger:           logger,
		},
		logger: logger,
	}
}

// ResolveOrCreate finds the article previously imported for externalID in
// scope. When there is no mapping, or the mapping was never linked to an
// article, a fresh unsaved draft is returned with created set.
func (r *Resolver) ResolveOrCreate(ctx context.Context, scope Scope, externalID string) (*catalog.Article, *catalog.ImportRecord, bool, error) {
	rec, _, err := r.store.GetOrCreateImportRecord(ctx, scope.JournalID, scope.DumpName, externalID)
	if err != nil {
		return nil, nil, false, err
	}

	if rec.ArticleID != nil {
		article, err := r.store.GetArticle(ctx, *rec.ArticleID)
		switch {
		case err == nil:
			r.logger.Info("updating article", "article_id", article.ID, "external_id", externalID)
			return article, rec, false, nil
		case errors.Is(err, catalog.ErrNotFound):
			r.logger.Warn("import record points at a missing article", "article_id", *rec.ArticleID, "external_id", externalID)
		default:
			return nil, nil, false, fmt.Errorf("loading article %d: %w", *rec.ArticleID, err)
		}
	}

	r.logger.Info("importing new article", "external_id", externalID)
	article := &catalog.Article{
		JournalID: scope.JournalID,
		Stage:     catalog.StageUnassigned,
		IsImport:  true,
	}
	return article, rec, true, nil
}

// Import reconciles doc into its article. Scalar fields are overwritten,
// collections are additive, and the import record is saved last so an
// interrupted import is retried as a first import.
func (r *Resolver) Import(ctx context.Context, scope Scope, doc *hub.Document) (*Result, error) {
	if doc.ExternalID == "" {
		return nil, errors.New("document has no external id")
	}

	article, rec, created, err := r.ResolveOrCreate(ctx, scope, doc.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", doc.ExternalID, err)
	}
	logger := r.logger.With("external_id", doc.ExternalID)

	r.populate(ctx, logger, article, doc)
	if err := r.store.SaveArticle(ctx, article); err != nil {
		return nil, err
	}

	if err := r.applyCollections(ctx, logger, article, doc); err != nil {
		return nil, err
	}

	corresp, err := r.authors.Reconcile(ctx, article, doc)
	if err != nil {
		return nil, fmt.Errorf("reconciling authors: %w", err)
	}
	if corresp != nil {
		article.CorrespondenceAuthorID = corresp
	}
	if err := r.store.SaveArticle(ctx, article); err != nil {
		return nil, err
	}

	rec.ArticleID = &article.ID
	rec.SetExtra("path", doc.PathHint)
	rec.SetExtra("fulltext_url", doc.FulltextURL)
	rec.SetExtra("imported_at", r.opts.Now().UTC().Format(time.RFC3339))
	if doc.SubmissionPath != "" {
		rec.SetExtra("submission_path", doc.SubmissionPath)
	}
	if err := r.store.SaveImportRecord(ctx, rec); err != nil {
		return nil, err
	}

	return &Result{Article: article, Record: rec, Created: created}, nil
}

func (r *Resolver) populate(ctx context.Context, logger *slog.Logger, article *catalog.Article, doc *hub.Document) {
	article.Title = doc.Title
	article.Abstract = doc.Abstract
	article.Stage = catalog.StagePublished

	if doc.PublishedAt != nil {
		article.DatePublished = doc.PublishedAt
	} else {
		now := r.opts.Now().UTC()
		article.DatePublished = &now
	}
	if doc.SubmittedAt != nil {
		article.DateSubmitted = doc.SubmittedAt
	} else {
		article.DateSubmitted = article.DatePublished
	}

	if doc.Language != "" {
		article.Language = doc.Language
	}
	article.PeerReviewed = doc.PeerReviewed

	r.applySection(ctx, logger, article, doc)
	r.applyLicense(ctx, logger, article, doc)
	applyScalars(article, doc)
}

// sectionName picks the section title: the configured section field, then
// the document type, then the default section.
func (r *Resolver) sectionName(doc *hub.Document) string {
	if r.opts.SectionField != "" {
		if v, ok := doc.Fields.Get(r.opts.SectionField); ok {
			return v
		}
	}
	if s := doc.Section(); s != "" {
		return s
	}
	return r.opts.DefaultSection
}

func (r *Resolver) applySection(ctx context.Context, logger *slog.Logger, article *catalog.Article, doc *hub.Document) {
	name := r.sectionName(doc)
	if name == "" {
		logger.Warn("no section found", "title", doc.Title)
		return
	}
	section, created, err := r.store.GetOrCreateSection(ctx, article.JournalID, name)
	if err != nil {
		logger.Warn("section lookup failed", "section", name, "error", err)
		return
	}
	if created {
		logger.Info("created section", "section", name)
	}
	article.SectionID = &section.ID
}
