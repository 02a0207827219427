package bepresscsv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/bepress-migrate/format/bepressxml"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

// MetadataFilename is the per-document file name inside an export tree.
const MetadataFilename = "metadata.xml"

// Converter renders CSV documents as bepress metadata.xml files so that a
// CSV export can be imported like a directory export.
type Converter struct {
	// Root is the archive root the {issue}/{id}/metadata.xml tree is written under
	Root string

	// Scraper fills in missing fulltext URLs; nil disables scraping
	Scraper *Scraper

	// DryRun renders without writing
	DryRun bool

	Logger *slog.Logger
}

// Output is the result of converting one document.
type Output struct {
	Document *hub.Document
	XML      string
	// Path is empty for dry runs.
	Path string
}

// Convert renders every document. A document that cannot be rendered or
// written is logged and skipped.
func (c *Converter) Convert(ctx context.Context, docs []*hub.Document) ([]Output, error) {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}

	outputs := make([]Output, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}
		if c.Scraper != nil {
			c.Scraper.Complete(ctx, doc)
		}

		out, err := c.convertOne(doc)
		if err != nil {
			log.Error("failed to convert row", "external_id", doc.ExternalID, "title", doc.Title, "error", err)
			continue
		}
		if out.Path != "" {
			log.Info("wrote metadata", "path", out.Path)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func (c *Converter) convertOne(doc *hub.Document) (Output, error) {
	xml, err := bepressxml.Render(doc)
	if err != nil {
		return Output{}, fmt.Errorf("rendering: %w", err)
	}
	out := Output{Document: doc, XML: xml}
	if c.DryRun {
		return out, nil
	}

	path, err := c.metadataPath(doc)
	if err != nil {
		return Output{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Output{}, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(xml), 0o644); err != nil {
		return Output{}, fmt.Errorf("writing %s: %w", path, err)
	}
	out.Path = path
	return out, nil
}

// metadataPath returns {root}/{issue}/{id}/metadata.xml, refusing paths that
// would escape the root.
func (c *Converter) metadataPath(doc *hub.Document) (string, error) {
	if doc.ExternalID == "" {
		return "", fmt.Errorf("document %q has no bepress id", doc.Title)
	}
	rel := filepath.Clean(filepath.Join(filepath.FromSlash(doc.Issue), doc.ExternalID, MetadataFilename))
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("document %s: issue path %q escapes the archive root", doc.ExternalID, doc.Issue)
	}
	return filepath.Join(c.Root, rel), nil
}
