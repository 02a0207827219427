// Package archive drives the import of a bepress export directory tree
// into the catalog.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/format"
	"github.com/lehigh-university-libraries/bepress-migrate/format/bepressxml"
	"github.com/lehigh-university-libraries/bepress-migrate/galley"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
	"github.com/lehigh-university-libraries/bepress-migrate/mapping"
	"github.com/lehigh-university-libraries/bepress-migrate/reconcile"
)

// LockFile is created in the export directory for the duration of a run.
const LockFile = ".bepress-migrate.lock"

// ErrLocked is returned when another run holds the export lock.
var ErrLocked = errors.New("export is locked by another import")

// Config is the explicit configuration of a Driver.
type Config struct {
	// ArchiveRoot holds one directory per export.
	ArchiveRoot string
	// ImportPath restricts the run to directories whose export-relative
	// path contains it.
	ImportPath string
	Structure  hub.StructureKind

	JournalCode string
	JournalName string

	SectionField     string
	DefaultSection   string
	DummyAccounts    bool
	DummyEmailDomain string
	Stamped          bool

	// Workers > 1 processes top-level subtrees concurrently.
	Workers int
	// DryRun parses every document without touching the catalog.
	DryRun bool
	// MetricsFile receives a Prometheus textfile after the run.
	MetricsFile string

	Logger *slog.Logger
	Now    func() time.Time
}

// Fetcher downloads remote payloads for articles and chapters.
type Fetcher interface {
	galley.Fetcher
}

// Files stores article and chapter payloads.
type Files interface {
	galley.Files
	reconcile.BookFiles
}

// Summary reports the outcome of a run.
type Summary struct {
	Export    string
	Processed int
	Created   int
	Updated   int
	Failed    int
	Skipped   int
	Books     int
	Duration  time.Duration
}

// Driver imports bepress exports.
type Driver struct {
	cfg      Config
	store    catalog.Store
	profile  *mapping.Profile
	resolver *reconcile.Resolver
	issues   *reconcile.IssueResolver
	galleys  *galley.Acquirer
	fields   *reconcile.CustomFields
	books    *reconcile.BookImporter
	metrics  *Metrics
	logger   *slog.Logger
}

// New wires a Driver over store. profile may be nil.
func New(cfg Config, store catalog.Store, fetcher Fetcher, files Files, profile *mapping.Profile) (*Driver, error) {
	if cfg.ArchiveRoot == "" {
		return nil, errors.New("archive root is required")
	}
	if cfg.Structure == "" {
		cfg.Structure = hub.StructureJournal
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// Documents of an unknown structure are still imported, without an issue.
	if _, err := hub.ParseStructureKind(string(cfg.Structure)); err != nil {
		logger.Warn("issue placement disabled", "error", err)
	}

	return &Driver{
		cfg:     cfg,
		store:   store,
		profile: profile,
		resolver: reconcile.NewResolver(store, reconcile.Options{
			SectionField:     cfg.SectionField,
			DefaultSection:   cfg.DefaultSection,
			DummyAccounts:    cfg.DummyAccounts,
			DummyEmailDomain: cfg.DummyEmailDomain,
			Logger:           logger,
			Now:              cfg.Now,
		}),
		issues:  &reconcile.IssueResolver{Store: store, Logger: logger.With("component", "issues")},
		galleys: galley.New(store, fetcher, files, galley.Options{Stamped: cfg.Stamped, Logger: logger}),
		fields:  &reconcile.CustomFields{Store: store, Profile: profile, Logger: logger.With("component", "fields")},
		books: &reconcile.BookImporter{
			Store:  store,
			Fetch:  fetcher,
			Files:  files,
			Logger: logger.With("component", "books"),
		},
		metrics: NewMetrics(),
		logger:  logger.With("component", "archive"),
	}, nil
}

// Metrics returns the collectors updated by Run.
func (d *Driver) Metrics() *Metrics {
	return d.metrics
}

// run is the mutable state of one Run call.
type run struct {
	export string
	root   string
	scope  reconcile.Scope

	mu      sync.Mutex
	summary Summary
	books   map[int64]bool
}

func (r *run) count(f func(s *Summary)) {
	r.mu.Lock()
	f(&r.summary)
	r.mu.Unlock()
}

func (r *run) touchBook(id int64) {
	r.mu.Lock()
	r.books[id] = true
	r.mu.Unlock()
}

// Run imports every document under {ArchiveRoot}/{exportName}. A failing
// document is logged and counted; only setup errors, a cancelled context and
// the book dating step abort the run.
func (d *Driver) Run(ctx context.Context, exportName string) (Summary, error) {
	start := d.cfg.Now()
	root := filepath.Join(d.cfg.ArchiveRoot, exportName)
	info, err := os.Stat(root)
	if err != nil {
		return Summary{}, fmt.Errorf("opening export %q: %w", exportName, err)
	}
	if !info.IsDir() {
		return Summary{}, fmt.Errorf("export %q is not a directory", exportName)
	}

	lock := flock.New(filepath.Join(root, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrLocked, root)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			d.logger.Warn("failed to release export lock", "error", err)
		}
	}()

	r := &run{
		export:  exportName,
		root:    root,
		books:   make(map[int64]bool),
		summary: Summary{Export: exportName},
	}
	if !d.cfg.DryRun {
		code := d.cfg.JournalCode
		if code == "" {
			code = exportName
		}
		name := d.cfg.JournalName
		if name == "" {
			name = code
		}
		journal, _, err := d.store.GetOrCreateJournal(ctx, code, name)
		if err != nil {
			return Summary{}, fmt.Errorf("journal %q: %w", code, err)
		}
		r.scope = reconcile.Scope{DumpName: exportName, JournalID: journal.ID}
	}

	dirs, err := Discover(root, d.cfg.ImportPath)
	if err != nil {
		return Summary{}, err
	}
	d.logger.Info("starting import",
		"export", exportName,
		"documents", len(dirs),
		"structure", string(d.cfg.Structure),
		"workers", d.cfg.Workers,
		"dry_run", d.cfg.DryRun,
	)

	if err := d.walk(ctx, r, dirs); err != nil {
		return r.summary, err
	}

	if len(r.books) > 0 {
		ids := make([]int64, 0, len(r.books))
		for id := range r.books {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		dated, err := d.books.DateBooks(ctx, ids)
		d.metrics.BooksDated.Add(float64(dated))
		if err != nil {
			return r.summary, fmt.Errorf("dating books: %w", err)
		}
		r.summary.Books = len(ids)
	}

	r.summary.Duration = d.cfg.Now().Sub(start)
	d.metrics.finish(r.summary.Duration, d.cfg.Now())
	if d.cfg.MetricsFile != "" {
		if err := d.metrics.WriteTextfile(d.cfg.MetricsFile); err != nil {
			d.logger.Warn("could not write metrics", "path", d.cfg.MetricsFile, "error", err)
		}
	}

	d.logger.Info("import finished",
		"export", exportName,
		"processed", r.summary.Processed,
		"created", r.summary.Created,
		"updated", r.summary.Updated,
		"failed", r.summary.Failed,
		"skipped", r.summary.Skipped,
		"duration", r.summary.Duration,
	)
	return r.summary, nil
}

// walk processes dirs sequentially, or one top-level subtree per worker.
func (d *Driver) walk(ctx context.Context, r *run, dirs []string) error {
	if d.cfg.Workers <= 1 {
		for _, rel := range dirs {
			if err := ctx.Err(); err != nil {
				return err
			}
			d.processDir(ctx, r, rel)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for _, shard := range Shard(dirs) {
		shard := shard
		g.Go(func() error {
			for _, rel := range shard {
				if err := gctx.Err(); err != nil {
					return err
				}
				d.processDir(gctx, r, rel)
			}
			return nil
		})
	}
	return g.Wait()
}

// processDir imports the document in rel, recording its outcome. Errors and
// panics never escape.
func (d *Driver) processDir(ctx context.Context, r *run, rel string) {
	started := time.Now()
	logger := d.logger.With("path", rel)

	result, externalID, err := d.safeImport(ctx, r, rel)
	if externalID != "" {
		logger = logger.With("external_id", externalID)
	}
	if err != nil {
		logger.Error("failed to import document", "error", err)
		result = resultFailed
	}
	d.metrics.observe(r.export, result, time.Since(started))

	r.count(func(s *Summary) {
		switch result {
		case resultSkipped:
			s.Skipped++
			return
		case resultFailed:
			s.Failed++
		case resultCreated:
			s.Created++
		case resultUpdated:
			s.Updated++
		}
		s.Processed++
	})
}

func (d *Driver) safeImport(ctx context.Context, r *run, rel string) (result, externalID string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
	}()

	dir := filepath.Join(r.root, filepath.FromSlash(rel))
	doc, err := d.parse(dir, rel)
	if errors.Is(err, bepressxml.ErrNoDocument) {
		d.logger.Warn("metadata has no document, skipping", "path", rel)
		return resultSkipped, "", nil
	}
	if err != nil {
		return "", "", err
	}
	externalID = doc.ExternalID

	if d.cfg.DryRun {
		d.logger.Info("parsed document", "path", rel, "external_id", externalID, "title", doc.Title)
		return resultParsed, externalID, nil
	}

	if d.cfg.Structure == hub.StructureBooks {
		book, _, err := d.books.ImportChapter(ctx, doc)
		if err != nil {
			return "", externalID, err
		}
		r.touchBook(book.ID)
		return resultUpdated, externalID, nil
	}

	res, err := d.resolver.Import(ctx, r.scope, doc)
	if err != nil {
		return "", externalID, err
	}
	d.issues.Attach(ctx, res.Article, rel, d.cfg.Structure, doc)

	files, err := listFiles(dir)
	if err != nil {
		return "", externalID, err
	}
	if err := d.galleys.AcquireAll(ctx, res.Article, galley.Request{Doc: doc, Dir: dir, LocalFiles: files}); err != nil {
		return "", externalID, err
	}
	if err := d.fields.Apply(ctx, res.Article, doc); err != nil {
		return "", externalID, fmt.Errorf("custom fields: %w", err)
	}

	if res.Created {
		return resultCreated, externalID, nil
	}
	return resultUpdated, externalID, nil
}

func (d *Driver) parse(dir, rel string) (*hub.Document, error) {
	f, err := os.Open(filepath.Join(dir, galley.MetadataFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	opts := format.NewParseOptions()
	opts.Profile = d.profile
	opts.SourceName = rel
	opts.PathHint = rel
	opts.Logger = d.logger
	return bepressxml.ParseDocument(f, opts)
}

// listFiles returns the names of the regular files in dir.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			files = append(files, e.Name())
		}
	}
	return files, nil
}
