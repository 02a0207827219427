package galley

import (
	"context"
	"sort"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/helpers"
)

// Local files that are never the primary payload.
const (
	MetadataFile    = "metadata.xml"
	AutoConvertFile = "auto_convert.pdf"
	StampedFile     = "stamped.pdf"
)

var nonPayload = map[string]bool{
	MetadataFile:    true,
	AutoConvertFile: true,
	StampedFile:     true,
}

// Strategy is one way of finding an article's primary full text.
type Strategy struct {
	Name string
	// Applies reports whether the strategy is relevant for the request.
	Applies func(req Request) bool
	// Acquire returns the payload, or nil when nothing was found.
	Acquire func(ctx context.Context, a *Acquirer, req Request) *Payload
}

// PrimaryStrategies are tried in order; the first payload found wins. The
// remote strategy only applies when the document carries a fulltext-url
// element, the local one only when it does not.
var PrimaryStrategies = []Strategy{
	{Name: "remote", Applies: remoteApplies, Acquire: remoteAcquire},
	{Name: "local", Applies: localApplies, Acquire: localAcquire},
}

func remoteApplies(req Request) bool {
	return req.Doc.HasFulltextURL
}

func remoteAcquire(ctx context.Context, a *Acquirer, req Request) *Payload {
	if req.Doc.FulltextURL == "" {
		return nil
	}
	u := helpers.WithStampVariant(req.Doc.FulltextURL, a.stamped)
	resp := a.download(ctx, u)
	if resp == nil {
		return nil
	}
	filename := resp.Filename()
	if filename == "" {
		a.logger.Warn("no filename available in headers, will autogenerate one", "url", u)
		filename = synthName(".pdf")
	}
	return &Payload{Filename: filename, MimeType: "application/pdf", Data: resp.Body, SourceURL: u}
}

func localApplies(req Request) bool {
	return !req.Doc.HasFulltextURL
}

func localAcquire(_ context.Context, a *Acquirer, req Request) *Payload {
	name, ok := SelectLocalFile(req.LocalFiles, a.stamped)
	if !ok {
		return nil
	}
	p, err := readLocal(req.Dir, name)
	if err != nil {
		a.logger.Warn("could not read local galley", "dir", req.Dir, "file", name, "error", err)
		return nil
	}
	return p
}

// SelectLocalFile picks the primary payload among the files found next to
// metadata.xml. stamped.pdf is chosen when the stamped variant is requested
// and present; otherwise the first remaining file by name.
func SelectLocalFile(files []string, stamped bool) (string, bool) {
	var candidates []string
	hasStamped := false
	for _, f := range files {
		if f == StampedFile {
			hasStamped = true
		}
		if !nonPayload[f] {
			candidates = append(candidates, f)
		}
	}
	if stamped && hasStamped {
		return StampedFile, true
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[0], true
}

// Primary attaches the article's PDF galley. An article keeps the first PDF
// galley it receives.
func (a *Acquirer) Primary(ctx context.Context, article *catalog.Article, req Request) (*catalog.Galley, error) {
	exists, err := a.hasGalley(ctx, article.ID, catalog.GalleyPDF)
	if err != nil || exists {
		return nil, err
	}
	for _, s := range PrimaryStrategies {
		if !s.Applies(req) {
			continue
		}
		p := s.Acquire(ctx, a, req)
		if p == nil {
			a.logger.Debug("no primary galley", "strategy", s.Name, "article_id", article.ID)
			continue
		}
		a.logger.Debug("found primary galley", "strategy", s.Name, "filename", p.Filename)
		return a.attach(ctx, article, catalog.GalleyPDF, LabelPDF, p)
	}
	return nil, nil
}
