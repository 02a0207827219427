// Package galley acquires the full-text renditions and attachments of an
// imported article.
package galley

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/fetch"
	"github.com/lehigh-university-libraries/bepress-migrate/helpers"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

// Galley labels.
const (
	LabelPDF           = "PDF"
	LabelHTML          = "HTML"
	LabelImage         = "Image"
	LabelXML           = "XML"
	LabelSupplementary = "Supplementary File"
)

// Fetcher is the remote collaborator used to download payloads.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
	Head(ctx context.Context, url string) (*fetch.Response, error)
	GetRelaxed(ctx context.Context, url string) (*fetch.Response, error)
}

// Files stores article payloads.
type Files interface {
	SaveArticleFile(articleID int64, filename string, data []byte) (string, error)
}

// Payload is an acquired file.
type Payload struct {
	Filename  string
	MimeType  string
	Data      []byte
	SourceURL string
}

// Options configures an Acquirer.
type Options struct {
	// Stamped selects the cover-stamped PDF variant.
	Stamped bool
	Logger  *slog.Logger
}

// Acquirer attaches galleys and supplementary files to articles. Every
// remote failure is logged and treated as an absent resource.
type Acquirer struct {
	store   catalog.GalleyStore
	fetch   Fetcher
	files   Files
	stamped bool
	logger  *slog.Logger
}

// New creates an Acquirer.
func New(store catalog.GalleyStore, fetcher Fetcher, files Files, opts Options) *Acquirer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{
		store:   store,
		fetch:   fetcher,
		files:   files,
		stamped: opts.Stamped,
		logger:  logger.With("component", "galley"),
	}
}

// Request describes where a document was found.
type Request struct {
	Doc *hub.Document
	// Dir is the directory holding metadata.xml and its sibling files.
	Dir string
	// LocalFiles are the names of the regular files in Dir.
	LocalFiles []string
}

// AcquireAll runs every acquisition step for an article: supplementary
// files, the primary PDF, the relation HTML galley, linked media and the
// native-url image. Only store failures are returned.
func (a *Acquirer) AcquireAll(ctx context.Context, article *catalog.Article, req Request) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"supplementary files", func() error { return a.Supplementary(ctx, article, req.Doc) }},
		{"primary galley", func() error { _, err := a.Primary(ctx, article, req); return err }},
		{"relation galley", func() error { _, err := a.Relation(ctx, article, req.Doc); return err }},
		{"media galley", func() error { _, err := a.Media(ctx, article, req.Doc); return err }},
		{"native image galley", func() error { _, err := a.NativeImage(ctx, article, req.Doc); return err }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

// hasGalley reports whether the article already has a galley of kind.
func (a *Acquirer) hasGalley(ctx context.Context, articleID int64, kind string) (bool, error) {
	_, err := a.store.GetGalley(ctx, articleID, kind)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, catalog.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// attach stores p and records it as the article's galley of kind.
func (a *Acquirer) attach(ctx context.Context, article *catalog.Article, kind, label string, p *Payload) (*catalog.Galley, error) {
	rel, err := a.files.SaveArticleFile(article.ID, p.Filename, p.Data)
	if err != nil {
		return nil, fmt.Errorf("storing %s galley: %w", kind, err)
	}
	g, _, err := a.store.UpdateOrCreateGalley(ctx, catalog.Galley{
		ArticleID:   article.ID,
		Kind:        kind,
		Label:       label,
		Filename:    p.Filename,
		MimeType:    p.MimeType,
		StoragePath: rel,
		SourceURL:   p.SourceURL,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("attached galley", "article_id", article.ID, "kind", kind, "filename", p.Filename)
	return g, nil
}

// download fetches url, returning nil for transport failures and non-2xx
// responses.
func (a *Acquirer) download(ctx context.Context, rawURL string) *fetch.Response {
	resp, err := a.fetch.Get(ctx, rawURL)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		a.logger.Warn("error fetching file", "url", rawURL, "error", err)
		return nil
	}
	return resp
}

// synthName returns a random filename with ext.
func synthName(ext string) string {
	return uuid.NewString() + ext
}

// extensionFor returns a filename extension for a media type.
func extensionFor(mediaType string) string {
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// urlBase returns the last path segment of a URL, or "".
func urlBase(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func readLocal(dir, name string) (*Payload, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	mt := mime.TypeByExtension(filepath.Ext(name))
	if mt == "" {
		mt = "application/pdf"
	}
	return &Payload{Filename: name, MimeType: helpers.MediaType(mt), Data: data}, nil
}
