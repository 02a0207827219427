package bepresscsv

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lehigh-university-libraries/bepress-migrate/fetch"
	"github.com/lehigh-university-libraries/bepress-migrate/helpers"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

// Getter downloads a URL.
type Getter interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Strategy locates the fulltext PDF link on a bepress landing page.
type Strategy struct {
	Name string
	Find func(page *goquery.Document) (string, bool)
}

// FulltextStrategies are tried in order; the first match wins.
var FulltextStrategies = []Strategy{
	{Name: "meta-tag", Find: metaTagURL},
	{Name: "anchor", Find: anchorURL},
}

func metaTagURL(page *goquery.Document) (string, bool) {
	content, ok := page.Find(`meta[name="bepress_citation_pdf_url"]`).First().Attr("content")
	content = strings.TrimSpace(content)
	return content, ok && content != ""
}

func anchorURL(page *goquery.Document) (string, bool) {
	href, ok := page.Find("a#pdf").First().Attr("href")
	href = strings.TrimSpace(href)
	return href, ok && href != ""
}

// FindFulltextURL runs FulltextStrategies against a landing page and
// returns the first URL found with the name of the strategy that found it.
func FindFulltextURL(page *goquery.Document) (string, string, bool) {
	for _, s := range FulltextStrategies {
		if u, ok := s.Find(page); ok {
			return u, s.Name, true
		}
	}
	return "", "", false
}

// Scraper fills in the fulltext URL and bepress id of CSV rows that lack
// them by fetching the document landing page.
type Scraper struct {
	client  Getter
	stamped bool
	logger  *slog.Logger
}

// NewScraper returns a Scraper. Found URLs are rewritten to the stamped or
// unstamped PDF variant.
func NewScraper(client Getter, stamped bool, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		client:  client,
		stamped: stamped,
		logger:  logger.With("component", "scraper"),
	}
}

// Complete scrapes missing metadata into doc. Network and markup failures
// are logged and leave the fields unset.
func (s *Scraper) Complete(ctx context.Context, doc *hub.Document) {
	if doc.FulltextURL != "" && doc.ExternalID != "" {
		return
	}
	if doc.CalcURL == "" {
		return
	}

	log := s.logger.With("calc_url", doc.CalcURL, "external_id", doc.ExternalID)
	log.Info("fetching landing page for missing metadata")

	resp, err := s.client.Get(ctx, doc.CalcURL)
	if err != nil {
		log.Warn("failed to fetch landing page", "error", err)
		return
	}
	if err := resp.Err(); err != nil {
		log.Warn("no fulltext url found", "error", err)
		return
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		log.Warn("failed to parse landing page", "error", err)
		return
	}

	if doc.FulltextURL == "" {
		found, strategy, ok := FindFulltextURL(page)
		if !ok {
			log.Warn("landing page has no fulltext link")
		} else {
			doc.FulltextURL = helpers.WithStampVariant(resolveRef(doc.CalcURL, found), s.stamped)
			log.Debug("extracted fulltext url", "url", doc.FulltextURL, "strategy", strategy)
		}
	}

	if id, ok := helpers.QueryParam(doc.FulltextURL, "article"); ok && (doc.ExternalID == "" || doc.ExternalID == doc.ContextKey) {
		doc.ExternalID = id
	}
	if doc.ExternalID == "" {
		doc.ExternalID = doc.ContextKey
	}
}

func resolveRef(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
