package galley

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

// MediaFormatYouTube is the only multimedia_format rendered as a galley.
const MediaFormatYouTube = "youtube"

// MediaGalleyFilename is the filename of rendered media galleys.
const MediaGalleyFilename = "article.xml"

const jatsTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE article PUBLIC "-//NLM//DTD JATS (Z39.96) Journal Publishing DTD v1.2 20190208//EN" "JATS-journalpublishing1.dtd">
<article xmlns:xlink="http://www.w3.org/1999/xlink" article-type="research-article" dtd-version="1.2">
<front>
<article-meta>
<title-group>
<article-title>{{ xml .Title }}</article-title>
</title-group>
{{- if .Abstract }}
<abstract>
<p>{{ xml .Abstract }}</p>
</abstract>
{{- end }}
</article-meta>
</front>
<body>
<fig>
<media mimetype="video" position="anchor" specific-use="online" xlink:href="{{ xml .URL }}"/>
</fig>
</body>
</article>
`

var jats = template.Must(template.New("jats").Funcs(template.FuncMap{
	"xml": xmlEscape,
}).Parse(jatsTemplate))

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// EmbedURL rewrites a youtu.be share link into an embeddable URL.
func EmbedURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.Contains(u, "youtu.be") {
		u = strings.Replace(u, "youtu.be", "youtube.com/embed", 1)
	}
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return u
}

// RenderMediaJATS renders a JATS article whose body embeds the video at
// mediaURL.
func RenderMediaJATS(title, abstract, mediaURL string) (string, error) {
	var buf bytes.Buffer
	err := jats.Execute(&buf, struct {
		Title, Abstract, URL string
	}{title, abstract, EmbedURL(mediaURL)})
	if err != nil {
		return "", fmt.Errorf("rendering media galley: %w", err)
	}

	// drop blank lines left by conditionals
	lines := strings.Split(buf.String(), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n") + "\n", nil
}

// Media attaches a rendered XML galley for a linked YouTube video.
func (a *Acquirer) Media(ctx context.Context, article *catalog.Article, doc *hub.Document) (*catalog.Galley, error) {
	if doc.Media == nil || doc.Media.Format != MediaFormatYouTube || doc.Media.URL == "" {
		return nil, nil
	}
	existing, err := a.store.GetGalley(ctx, article.ID, catalog.GalleyXML)
	if err == nil && existing.SourceURL == doc.Media.URL {
		return existing, nil
	}
	body, err := RenderMediaJATS(article.Title, article.Abstract, doc.Media.URL)
	if err != nil {
		return nil, err
	}
	return a.attach(ctx, article, catalog.GalleyXML, LabelXML, &Payload{
		Filename:  MediaGalleyFilename,
		MimeType:  "application/xml",
		Data:      []byte(body),
		SourceURL: doc.Media.URL,
	})
}
