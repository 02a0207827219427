package galley

import (
	"context"
	"strings"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/helpers"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

// Supplementary attaches the document's supplemental files. HTML files
// become the article's HTML galley; the rest become supplementary files
// labelled by their description.
func (a *Acquirer) Supplementary(ctx context.Context, article *catalog.Article, doc *hub.Document) error {
	for _, sf := range doc.SupplementalFiles {
		if strings.TrimSpace(sf.URL) == "" {
			continue
		}
		var err error
		if helpers.IsHTMLMime(sf.MimeType) {
			err = a.supplementalHTML(ctx, article, sf)
		} else {
			err = a.supplementalFile(ctx, article, sf)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Acquirer) supplementalHTML(ctx context.Context, article *catalog.Article, sf hub.SupplementalFile) error {
	exists, err := a.hasGalley(ctx, article.ID, catalog.GalleyHTML)
	if err != nil || exists {
		return err
	}
	resp := a.download(ctx, sf.URL)
	if resp == nil {
		return nil
	}
	name := firstNonEmpty(resp.Filename(), sf.UploadName, sf.ArchiveName, urlBase(sf.URL), synthName(".html"))
	_, err = a.attach(ctx, article, catalog.GalleyHTML, LabelHTML, &Payload{
		Filename:  name,
		MimeType:  helpers.MediaType(sf.MimeType),
		Data:      resp.Body,
		SourceURL: sf.URL,
	})
	return err
}

func (a *Acquirer) supplementalFile(ctx context.Context, article *catalog.Article, sf hub.SupplementalFile) error {
	label := strings.TrimSpace(sf.Description)
	if label == "" {
		label = LabelSupplementary
	}

	// Attachments are keyed by source URL.
	existing, err := a.store.ListSupplementaryFiles(ctx, article.ID)
	if err != nil {
		return err
	}
	for _, f := range existing {
		if f.SourceURL == sf.URL {
			return nil
		}
	}

	resp := a.download(ctx, sf.URL)
	if resp == nil {
		return nil
	}
	name := firstNonEmpty(sf.UploadName, sf.ArchiveName, resp.Filename(), urlBase(sf.URL), synthName(extensionFor(sf.MimeType)))
	mimeType := helpers.MediaType(sf.MimeType)
	if mimeType == "" {
		mimeType = resp.ContentType()
	}

	rel, err := a.files.SaveArticleFile(article.ID, name, resp.Body)
	if err != nil {
		return err
	}
	_, created, err := a.store.GetOrCreateSupplementaryFile(ctx, catalog.SupplementaryFile{
		ArticleID:   article.ID,
		Label:       label,
		Filename:    name,
		MimeType:    mimeType,
		StoragePath: rel,
		SourceURL:   sf.URL,
	})
	if err == nil && created {
		a.logger.Info("attached supplementary file", "article_id", article.ID, "label", label, "filename", name)
	}
	return err
}

// Relation attaches the page named by the relation field as the HTML
// galley. The page is fetched without certificate verification and over
// plain http if TLS still fails.
func (a *Acquirer) Relation(ctx context.Context, article *catalog.Article, doc *hub.Document) (*catalog.Galley, error) {
	target, ok := doc.Fields.Get(hub.FieldRelation)
	if !ok {
		return nil, nil
	}
	if !helpers.IsHTTPURL(target) {
		a.logger.Warn("relation is not a URL", "relation", target)
		return nil, nil
	}
	exists, err := a.hasGalley(ctx, article.ID, catalog.GalleyHTML)
	if err != nil || exists {
		return nil, err
	}

	resp, err := a.fetch.GetRelaxed(ctx, target)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		a.logger.Warn("error fetching relation", "url", target, "error", err)
		return nil, nil
	}
	if !helpers.IsHTMLMime(resp.ContentType()) {
		a.logger.Debug("relation is not HTML", "url", target, "content_type", resp.ContentType())
		return nil, nil
	}
	return a.attach(ctx, article, catalog.GalleyHTML, LabelHTML, &Payload{
		Filename:  "article.html",
		MimeType:  resp.ContentType(),
		Data:      resp.Body,
		SourceURL: target,
	})
}

// NativeImage attaches the native-url as an image galley when a HEAD
// request reports an image type.
func (a *Acquirer) NativeImage(ctx context.Context, article *catalog.Article, doc *hub.Document) (*catalog.Galley, error) {
	if doc.NativeURL == "" {
		return nil, nil
	}
	exists, err := a.hasGalley(ctx, article.ID, catalog.GalleyImage)
	if err != nil || exists {
		return nil, err
	}

	head, err := a.fetch.Head(ctx, doc.NativeURL)
	if err != nil {
		a.logger.Warn("error checking native url", "url", doc.NativeURL, "error", err)
		return nil, nil
	}
	if !helpers.IsImageMime(head.ContentType()) {
		return nil, nil
	}
	a.logger.Info("native url is an image, importing as galley", "url", doc.NativeURL)

	resp := a.download(ctx, doc.NativeURL)
	if resp == nil {
		return nil, nil
	}
	mimeType := resp.ContentType()
	name := firstNonEmpty(resp.Filename(), synthName(extensionFor(mimeType)))
	return a.attach(ctx, article, catalog.GalleyImage, LabelImage, &Payload{
		Filename:  name,
		MimeType:  mimeType,
		Data:      resp.Body,
		SourceURL: doc.NativeURL,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
