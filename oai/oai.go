// Package oai harvests bepress metadata from an OAI-PMH endpoint into an
// export directory tree that the archive driver can import.
package oai

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/bepress-migrate/fetch"
	"github.com/lehigh-university-libraries/bepress-migrate/format"
	"github.com/lehigh-university-libraries/bepress-migrate/format/bepressxml"
	"github.com/lehigh-university-libraries/bepress-migrate/galley"
)

// MetadataPrefix selects the bepress document-export record format.
const MetadataPrefix = "document-export"

// ErrBadSubmissionPath is returned for submission paths that would escape
// the archive root.
var ErrBadSubmissionPath = errors.New("submission path is not a local path")

// Getter fetches a page of the feed.
type Getter interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// Harvester writes every record of a feed to
// {ArchiveRoot}/{submission-path}/metadata.xml.
type Harvester struct {
	Client      Getter
	ArchiveRoot string
	Logger      *slog.Logger
}

// Stats counts the work of one harvest.
type Stats struct {
	Pages   int
	Records int
	Written int
	Skipped int
}

type response struct {
	Error *struct {
		Code    string `xml:"code,attr"`
		Message string `xml:",chardata"`
	} `xml:"error"`
	Records []record `xml:"ListRecords>record"`
	Token   string   `xml:"ListRecords>resumptionToken"`
}

type record struct {
	Header struct {
		Identifier string `xml:"identifier"`
		Status     string `xml:"status,attr"`
	} `xml:"header"`
	Metadata struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"metadata"`
}

// Harvest pages through ListRecords for baseURL, optionally restricted to
// set, until the feed returns no resumption token.
func (h *Harvester) Harvest(ctx context.Context, baseURL, set string) (Stats, error) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "oai")

	var stats Stats
	params := url.Values{"verb": {"ListRecords"}, "metadataPrefix": {MetadataPrefix}}
	if set != "" {
		params.Set("set", set)
	}

	for {
		page, err := h.fetchPage(ctx, baseURL, params)
		if err != nil {
			return stats, err
		}
		stats.Pages++
		if page.Error != nil {
			if page.Error.Code == "noRecordsMatch" {
				return stats, nil
			}
			return stats, fmt.Errorf("oai error %s: %s", page.Error.Code, strings.TrimSpace(page.Error.Message))
		}

		for _, rec := range page.Records {
			stats.Records++
			path, err := h.writeRecord(rec)
			switch {
			case err != nil:
				logger.Warn("could not write record", "identifier", rec.Header.Identifier, "error", err)
				stats.Skipped++
			case path == "":
				stats.Skipped++
			default:
				logger.Info("wrote record", "identifier", rec.Header.Identifier, "path", path)
				stats.Written++
			}
		}

		token := strings.TrimSpace(page.Token)
		if token == "" {
			return stats, nil
		}
		params = url.Values{"verb": {"ListRecords"}, "resumptionToken": {token}}
	}
}

func (h *Harvester) fetchPage(ctx context.Context, baseURL string, params url.Values) (*response, error) {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	resp, err := h.Client.Get(ctx, baseURL+sep+params.Encode())
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("fetching ListRecords: %w", err)
	}

	var page response
	if err := xml.Unmarshal(resp.Body, &page); err != nil {
		return nil, fmt.Errorf("parsing ListRecords: %w", err)
	}
	return &page, nil
}

// writeRecord stores the documents element of rec. It returns "" when the
// record carries no documents.
func (h *Harvester) writeRecord(rec record) (string, error) {
	if rec.Header.Status == "deleted" {
		return "", nil
	}
	documents, err := DocumentsElement(rec.Metadata.Inner)
	if err != nil || documents == nil {
		return "", err
	}

	doc, err := bepressxml.ParseDocument(bytes.NewReader(documents), &format.ParseOptions{
		SourceName: rec.Header.Identifier,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return "", err
	}
	if doc.SubmissionPath == "" {
		return "", errors.New("no submission-path found")
	}
	rel := filepath.FromSlash(strings.Trim(doc.SubmissionPath, "/"))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrBadSubmissionPath, doc.SubmissionPath)
	}

	path := filepath.Join(h.ArchiveRoot, rel, galley.MetadataFile)
	content := append([]byte(xml.Header), documents...)
	content = append(content, '\n')
	if err := writeAtomic(path, content); err != nil {
		return "", err
	}
	return path, nil
}

// DocumentsElement returns the raw bytes of the first <documents> element
// in data, or nil when there is none.
func DocumentsElement(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		offset := dec.InputOffset()
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("scanning record metadata: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "documents" {
			continue
		}
		if err := skip(dec); err != nil {
			return nil, err
		}
		return data[offset:dec.InputOffset()], nil
	}
}

// skip consumes tokens up to the end of the current element. Decoder.Skip
// cannot be used with RawToken.
func skip(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.RawToken()
		if err != nil {
			return fmt.Errorf("scanning documents element: %w", err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
