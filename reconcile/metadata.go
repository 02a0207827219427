package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/helpers"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

// License defaults for licenses first seen during an import.
const (
	ImportedLicenseName      = "Imported license"
	ImportedLicenseShortName = "imported"
	CopyrightShortName       = "Copyright"
)

// ErratumHeading prefixes erratum publisher notes.
const ErratumHeading = "<h3>Erratum</h3>"

func (r *Resolver) applyLicense(ctx context.Context, logger *slog.Logger, article *catalog.Article, doc *hub.Document) {
	if doc.RightsText != "" {
		article.Rights = doc.RightsText
	}

	if doc.LicenseURL == "" {
		lic, err := r.store.GetLicense(ctx, article.JournalID, CopyrightShortName)
		switch {
		case err == nil:
			logger.Info("no license in metadata, defaulting to copyright")
			article.LicenseID = &lic.ID
		case errors.Is(err, catalog.ErrNotFound):
			logger.Warn("no license in metadata, leaving blank")
		default:
			logger.Warn("license lookup failed", "error", err)
		}
		return
	}

	url := helpers.NormalizeLicenseURL(doc.LicenseURL)
	lic, created, err := r.store.GetOrCreateLicense(ctx, article.JournalID, url, catalog.License{
		Name:      ImportedLicenseName,
		ShortName: ImportedLicenseShortName,
	})
	if err != nil {
		logger.Warn("license lookup failed", "url", url, "error", err)
		return
	}
	if created {
		logger.Info("created new license", "url", url)
	}
	article.LicenseID = &lic.ID
}

// applyScalars copies the single-valued generic fields onto the article.
func applyScalars(article *catalog.Article, doc *hub.Document) {
	if pages := doc.Pages(); pages != "" {
		article.PageNumbers = pages
	}
	if v, ok := doc.Fields.Get(hub.FieldTotalPages); ok {
		// stored as "12" or "12 Pages"
		if n, ok := helpers.LeadingInt(v); ok {
			article.TotalPages = n
		}
	}
	if v, ok := doc.Fields.Get(hub.FieldPublisherName); ok {
		article.PublisherName = v
	}
	if v, ok := doc.Fields.Get(hub.FieldFinancialDisclosure); ok {
		article.CompetingInterests = v
	}
}

// applyCollections adds identifiers, keywords and notes. Nothing already
// attached is removed.
func (r *Resolver) applyCollections(ctx context.Context, logger *slog.Logger, article *catalog.Article, doc *hub.Document) error {
	if doi, ok := doc.Fields.Get(hub.FieldDOI); ok {
		if _, _, err := r.store.GetOrCreateIdentifier(ctx, article.ID, "doi", doi); err != nil {
			return fmt.Errorf("adding doi: %w", err)
		}
	}

	for i, word := range doc.Keywords {
		word = helpers.NormalizeKeyword(word)
		if word == "" {
			continue
		}
		kw, _, err := r.store.GetOrCreateKeyword(ctx, word)
		if err != nil {
			logger.Warn("could not add keyword", "keyword", word, "error", err)
			continue
		}
		if err := r.store.AddArticleKeyword(ctx, article.ID, kw.ID, i); err != nil {
			logger.Warn("could not add keyword", "keyword", word, "error", err)
		}
	}

	if text, ok := doc.Fields.Get(hub.FieldNotes); ok {
		if _, _, err := r.store.GetOrCreateNote(ctx, article.ID, text); err != nil {
			return fmt.Errorf("adding note: %w", err)
		}
	}

	var publisherNotes []string
	if text, ok := doc.Fields.Get(hub.FieldComments); ok {
		publisherNotes = append(publisherNotes, text)
	}
	if text, ok := doc.Fields.Get(hub.FieldErratum); ok {
		publisherNotes = append(publisherNotes, ErratumHeading+text)
	}
	for _, text := range publisherNotes {
		note, _, err := r.store.GetOrCreatePublisherNote(ctx, text)
		if err != nil {
			return fmt.Errorf("adding publisher note: %w", err)
		}
		if err := r.store.AddArticlePublisherNote(ctx, article.ID, note.ID); err != nil {
			return err
		}
	}
	return nil
}
