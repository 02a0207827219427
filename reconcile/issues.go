package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/helpers"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

var (
	// ErrUnknownStructure is returned for a structure with no issue layout.
	ErrUnknownStructure = errors.New("unknown bepress structure")
	// ErrBadPath is returned when a path does not match its structure.
	ErrBadPath = errors.New("path does not match structure")
)

// Placement derives the issue a document belongs to from relPath, its
// directory relative to the export root. published is the article's
// publication date and supplies the year where the path has none.
//
//	journal: vol{N}/iss{M}/{id}
//	events:  {year}/...
//	series:  no path information, dated the year before publication
func Placement(relPath string, kind hub.StructureKind, doc *hub.Document, published *time.Time) (hub.IssuePlacement, error) {
	p := hub.IssuePlacement{Kind: kind}
	segments := splitPath(relPath)

	var pubYear *int
	if published != nil {
		pubYear = hub.IntPtr(published.Year())
	}

	switch kind {
	case hub.StructureJournal:
		if len(segments) != 3 {
			return p, fmt.Errorf("%w: journal path %q needs vol/iss/id", ErrBadPath, relPath)
		}
		vol, err := strconv.Atoi(strings.TrimPrefix(segments[0], "vol"))
		if err != nil {
			return p, fmt.Errorf("%w: volume %q", ErrBadPath, segments[0])
		}
		iss, err := strconv.Atoi(strings.TrimPrefix(segments[1], "iss"))
		if err != nil {
			return p, fmt.Errorf("%w: issue %q", ErrBadPath, segments[1])
		}
		p.Volume = &vol
		p.Issue = &iss
		p.Year = pubYear

	case hub.StructureEvents:
		if len(segments) > 0 {
			if year, err := strconv.Atoi(segments[0]); err == nil {
				p.Year = &year
			}
		}
		if p.Year == nil {
			p.Year = pubYear
		}
		if p.Year == nil {
			return p, fmt.Errorf("%w: no year in %q and no publication date", ErrBadPath, relPath)
		}
		if doc != nil && doc.PublicationTitle != "" {
			p.Title = fmt.Sprintf("%s %d", doc.PublicationTitle, *p.Year)
		}

	case hub.StructureSeries:
		if pubYear == nil {
			return p, fmt.Errorf("%w: series document without a publication date", ErrBadPath)
		}
		year := *pubYear - 1
		p.Volume = hub.IntPtr(year)
		p.Year = hub.IntPtr(year)

	default:
		return p, fmt.Errorf("%w: %q", ErrUnknownStructure, kind)
	}
	return p, nil
}

func splitPath(relPath string) []string {
	cleaned := strings.Trim(path.Clean("/"+strings.ReplaceAll(relPath, "\\", "/")), "/")
	if cleaned == "" {
		return nil
	}
	return strings.Split(cleaned, "/")
}

// IssueResolver attaches articles to issues.
type IssueResolver struct {
	Store  catalog.Store
	Logger *slog.Logger
}

// Attach places article in the issue derived from relPath. Resolution
// failures are logged and leave the article unattached; nil is returned.
func (ir *IssueResolver) Attach(ctx context.Context, article *catalog.Article, relPath string, kind hub.StructureKind, doc *hub.Document) *catalog.Issue {
	logger := ir.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("path", relPath, "structure", string(kind))

	p, err := Placement(relPath, kind, doc, article.DatePublished)
	if err != nil {
		logger.Error("failed to get issue details", "error", err)
		return nil
	}
	issue, err := ir.attach(ctx, logger, article, p)
	if err != nil {
		logger.Error("failed to attach issue", "error", err)
		return nil
	}
	logger.Info("added to issue", "issue_id", issue.ID, "volume", issue.Volume, "number", issue.Number)
	return issue
}

func (ir *IssueResolver) attach(ctx context.Context, logger *slog.Logger, article *catalog.Article, p hub.IssuePlacement) (*catalog.Issue, error) {
	key := catalog.IssueKey{JournalID: article.JournalID, Volume: 1, Title: p.Title}
	if p.Volume != nil {
		key.Volume = *p.Volume
	}
	switch {
	case p.Issue != nil:
		key.Number = *p.Issue
	case p.Year != nil:
		key.Number = *p.Year
	}

	defaults := catalog.Issue{Type: catalog.IssueTypeIssue}
	if p.Kind == hub.StructureEvents {
		defaults.Type = catalog.IssueTypeCollection
	}
	issue, created, err := ir.Store.GetOrCreateIssue(ctx, key, defaults)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("created new issue", "issue_id", issue.ID, "type", issue.Type)
	}

	if p.Year != nil {
		date := helpers.YearStart(*p.Year)
		issue.Date = &date
		if err := ir.Store.SaveIssue(ctx, issue); err != nil {
			return nil, err
		}
	}
	if err := ir.Store.AddIssueArticle(ctx, issue.ID, article.ID); err != nil {
		return nil, err
	}
	article.PrimaryIssueID = &issue.ID
	if err := ir.Store.SaveArticle(ctx, article); err != nil {
		return nil, err
	}
	return issue, nil
}
