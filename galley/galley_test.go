package galley

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
	"github.com/lehigh-university-libraries/bepress-migrate/catalog/sqlstore"
	"github.com/lehigh-university-libraries/bepress-migrate/fetch"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
	"github.com/lehigh-university-libraries/bepress-migrate/storage"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	store   *sqlstore.Store
	article *catalog.Article
	acq     *Acquirer
}

func newFixture(t *testing.T, stamped bool) fixture {
	t.Helper()
	ctx := context.Background()
	store, err := sqlstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	j, _, _ := store.GetOrCreateJournal(ctx, "jrnl", "Journal")
	article := &catalog.Article{JournalID: j.ID, Title: "On Rocks", Stage: catalog.StagePublished}
	if err := store.SaveArticle(ctx, article); err != nil {
		t.Fatal(err)
	}

	client := fetch.New(fetch.Config{Logger: quietLogger})
	acq := New(store, client, storage.NewDisk(t.TempDir()), Options{Stamped: stamped, Logger: quietLogger})
	return fixture{store: store, article: article, acq: acq}
}

func TestSelectLocalFile(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		stamped bool
		want    string
		wantOK  bool
	}{
		{"stamped requested and present", []string{"metadata.xml", "paper.pdf", "stamped.pdf"}, true, "stamped.pdf", true},
		{"stamped requested but absent", []string{"metadata.xml", "paper.pdf"}, true, "paper.pdf", true},
		{"unstamped skips artifacts", []string{"stamped.pdf", "metadata.xml", "auto_convert.pdf", "b.pdf", "a.docx"}, false, "a.docx", true},
		{"only metadata", []string{"metadata.xml"}, false, "", false},
		{"only artifacts", []string{"metadata.xml", "auto_convert.pdf", "stamped.pdf"}, false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectLocalFile(tt.files, tt.stamped)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("got %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPrimaryStrategyOrder(t *testing.T) {
	if len(PrimaryStrategies) != 2 || PrimaryStrategies[0].Name != "remote" || PrimaryStrategies[1].Name != "local" {
		t.Fatalf("unexpected strategy order: %+v", PrimaryStrategies)
	}
}

func TestPrimaryRemoteUsesUnstampedVariant(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Disposition", `attachment; filename="rocks.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	f := newFixture(t, false)
	doc := &hub.Document{FulltextURL: srv.URL + "/viewcontent.cgi?article=1045&unstamped=0", HasFulltextURL: true}
	g, err := f.acq.Primary(context.Background(), f.article, Request{Doc: doc})
	if err != nil {
		t.Fatal(err)
	}
	if g == nil || g.Filename != "rocks.pdf" || g.Kind != catalog.GalleyPDF {
		t.Fatalf("galley = %+v", g)
	}
	if q := gotQuery.Load().(string); !strings.Contains(q, "unstamped=1") || strings.Contains(q, "unstamped=0") {
		t.Errorf("requested query %q", q)
	}

	// An article keeps its first PDF galley.
	again, err := f.acq.Primary(context.Background(), f.article, Request{Doc: doc})
	if err != nil || again != nil {
		t.Errorf("second Primary = %+v, %v", again, err)
	}
}

func TestPrimaryRemoteFailureIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := newFixture(t, false)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "paper.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := &hub.Document{FulltextURL: srv.URL + "/x.pdf", HasFulltextURL: true}
	g, err := f.acq.Primary(context.Background(), f.article, Request{Doc: doc, Dir: dir, LocalFiles: []string{"paper.pdf"}})
	if err != nil {
		t.Fatal(err)
	}
	if g != nil {
		t.Errorf("local fallback must not run when the fulltext-url element exists: %+v", g)
	}
}

func TestPrimaryRemoteSynthesizesFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer srv.Close()

	f := newFixture(t, true)
	doc := &hub.Document{FulltextURL: srv.URL + "/x", HasFulltextURL: true}
	g, err := f.acq.Primary(context.Background(), f.article, Request{Doc: doc})
	if err != nil || g == nil {
		t.Fatalf("galley = %+v, err = %v", g, err)
	}
	if !strings.HasSuffix(g.Filename, ".pdf") || len(g.Filename) != len("xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx.pdf") {
		t.Errorf("filename = %q", g.Filename)
	}
	if !strings.Contains(g.SourceURL, "unstamped=0") {
		t.Errorf("stamped request should ask for unstamped=0: %q", g.SourceURL)
	}
}

func TestPrimaryLocalFallback(t *testing.T) {
	f := newFixture(t, true)
	dir := t.TempDir()
	for _, name := range []string{"metadata.xml", "paper.pdf", "stamped.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	req := Request{Doc: &hub.Document{}, Dir: dir, LocalFiles: []string{"metadata.xml", "paper.pdf", "stamped.pdf"}}
	g, err := f.acq.Primary(context.Background(), f.article, req)
	if err != nil || g == nil {
		t.Fatalf("galley = %+v, err = %v", g, err)
	}
	if g.Filename != "stamped.pdf" || g.MimeType != "application/pdf" {
		t.Errorf("galley = %+v", g)
	}
}

func TestSupplementaryDispatch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("payload " + r.URL.Path))
	}))
	defer srv.Close()

	f := newFixture(t, false)
	doc := &hub.Document{SupplementalFiles: []hub.SupplementalFile{
		{URL: srv.URL + "/a.html", MimeType: "text/html", UploadName: "a.html"},
		{URL: srv.URL + "/b.html", MimeType: "text/html", UploadName: "b.html"},
		{URL: srv.URL + "/data.csv", MimeType: "text/csv", UploadName: "data.csv", Description: "Raw data"},
		{URL: srv.URL + "/fig.png", MimeType: "image/png", UploadName: "fig.png"},
	}}
	ctx := context.Background()
	if err := f.acq.Supplementary(ctx, f.article, doc); err != nil {
		t.Fatal(err)
	}

	galleys, _ := f.store.ListGalleys(ctx, f.article.ID)
	if len(galleys) != 1 || galleys[0].Kind != catalog.GalleyHTML || galleys[0].Filename != "a.html" {
		t.Errorf("galleys = %+v", galleys)
	}
	supp, _ := f.store.ListSupplementaryFiles(ctx, f.article.ID)
	if len(supp) != 2 {
		t.Fatalf("supplementary files = %+v", supp)
	}
	if supp[0].Label != "Raw data" || supp[1].Label != LabelSupplementary {
		t.Errorf("labels = %q, %q", supp[0].Label, supp[1].Label)
	}

	before := hits.Load()
	if err := f.acq.Supplementary(ctx, f.article, doc); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != before {
		t.Errorf("re-import downloaded %d files again", hits.Load()-before)
	}
	if supp, _ := f.store.ListSupplementaryFiles(ctx, f.article.ID); len(supp) != 2 {
		t.Errorf("supplementary files duplicated: %d", len(supp))
	}
}

func TestSupplementaryFilesSharingURLPath(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("file " + r.URL.RawQuery))
	}))
	defer srv.Close()

	f := newFixture(t, false)
	doc := &hub.Document{SupplementalFiles: []hub.SupplementalFile{
		{URL: srv.URL + "/cgi/viewcontent.cgi?article=1&filename=0", MimeType: "application/pdf"},
		{URL: srv.URL + "/cgi/viewcontent.cgi?article=1&filename=1", MimeType: "application/zip"},
	}}
	ctx := context.Background()
	if err := f.acq.Supplementary(ctx, f.article, doc); err != nil {
		t.Fatal(err)
	}
	supp, _ := f.store.ListSupplementaryFiles(ctx, f.article.ID)
	if len(supp) != 2 {
		t.Fatalf("supplementary files = %+v", supp)
	}
	if supp[0].SourceURL == supp[1].SourceURL {
		t.Errorf("both attachments point at %q", supp[0].SourceURL)
	}
	if supp[1].MimeType != "application/zip" {
		t.Errorf("second attachment mime = %q", supp[1].MimeType)
	}

	before := hits.Load()
	if err := f.acq.Supplementary(ctx, f.article, doc); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != before {
		t.Errorf("re-import downloaded %d files again", hits.Load()-before)
	}
}

func TestRelationGalley(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body>hi</body></html>"))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer srv.Close()

	ctx := context.Background()
	f := newFixture(t, false)

	pdfDoc := &hub.Document{}
	pdfDoc.Fields.Set(hub.FieldRelation, srv.URL+"/file")
	if g, err := f.acq.Relation(ctx, f.article, pdfDoc); err != nil || g != nil {
		t.Errorf("non-HTML relation attached: %+v, %v", g, err)
	}

	htmlDoc := &hub.Document{}
	htmlDoc.Fields.Set(hub.FieldRelation, srv.URL+"/page")
	g, err := f.acq.Relation(ctx, f.article, htmlDoc)
	if err != nil || g == nil {
		t.Fatalf("relation galley = %+v, %v", g, err)
	}
	if g.Kind != catalog.GalleyHTML || g.Filename != "article.html" {
		t.Errorf("galley = %+v", g)
	}
}

func TestRelationRetriesOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>plain</p>"))
	}))
	defer srv.Close()

	f := newFixture(t, false)
	doc := &hub.Document{}
	doc.Fields.Set(hub.FieldRelation, strings.Replace(srv.URL, "http://", "https://", 1)+"/page")
	g, err := f.acq.Relation(context.Background(), f.article, doc)
	if err != nil || g == nil {
		t.Fatalf("relation galley = %+v, %v", g, err)
	}
}

func TestMediaGalley(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	doc := &hub.Document{Media: &hub.Media{Format: "youtube", URL: "//youtu.be/abcxyz"}}

	g, err := f.acq.Media(ctx, f.article, doc)
	if err != nil || g == nil {
		t.Fatalf("media galley = %+v, %v", g, err)
	}
	if g.Kind != catalog.GalleyXML || g.Filename != MediaGalleyFilename || g.MimeType != "application/xml" {
		t.Errorf("galley = %+v", g)
	}

	vimeo := &hub.Document{Media: &hub.Media{Format: "vimeo", URL: "https://vimeo.com/1"}}
	if g, _ := f.acq.Media(ctx, f.article, vimeo); g != nil {
		t.Errorf("unsupported media attached: %+v", g)
	}
}

func TestRenderMediaJATS(t *testing.T) {
	out, err := RenderMediaJATS("Rocks & Stones", "", "//youtu.be/abcxyz")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`xlink:href="https://youtube.com/embed/abcxyz"`,
		`<media mimetype="video" position="anchor" specific-use="online"`,
		"<article-title>Rocks &amp; Stones</article-title>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<abstract>") {
		t.Error("empty abstract rendered")
	}
	if strings.Contains(out, "\n\n") {
		t.Error("blank lines left in output")
	}
}

func TestNativeImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cover":
			w.Header().Set("Content-Type", "image/png")
		default:
			w.Header().Set("Content-Type", "text/html")
		}
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("bytes"))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	f := newFixture(t, false)

	if g, _ := f.acq.NativeImage(ctx, f.article, &hub.Document{NativeURL: srv.URL + "/page"}); g != nil {
		t.Errorf("HTML native url attached: %+v", g)
	}
	g, err := f.acq.NativeImage(ctx, f.article, &hub.Document{NativeURL: srv.URL + "/cover"})
	if err != nil || g == nil {
		t.Fatalf("image galley = %+v, %v", g, err)
	}
	if g.Kind != catalog.GalleyImage || g.MimeType != "image/png" || !strings.HasSuffix(g.Filename, ".png") {
		t.Errorf("galley = %+v", g)
	}
}
