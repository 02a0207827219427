package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/bepress-migrate/catalog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenReusesExistingSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	first, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, _, err := first.GetOrCreateJournal(ctx, "jrnl", "Journal"); err != nil {
		t.Fatal(err)
	}
	_ = first.Close()

	second, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer func() { _ = second.Close() }()
	if _, created, err := second.GetOrCreateJournal(ctx, "jrnl", "Journal"); err != nil || created {
		t.Fatalf("journal after reopen: created=%v err=%v", created, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.ExecContext(ctx, "UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	if _, err := OpenSQLite(ctx, path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
}

func TestRebind(t *testing.T) {
	s := &Store{postgres: true}
	got := s.rebind("SELECT a FROM t WHERE b = ? AND c = ?")
	if got != "SELECT a FROM t WHERE b = $1 AND c = $2" {
		t.Errorf("rebind = %q", got)
	}
	if got := (&Store{}).rebind("x = ?"); got != "x = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	j, created, err := s.GetOrCreateJournal(ctx, "jrnl", "Journal")
	if err != nil || !created {
		t.Fatalf("first journal: created=%v err=%v", created, err)
	}
	again, created, err := s.GetOrCreateJournal(ctx, "jrnl", "Renamed")
	if err != nil || created {
		t.Fatalf("second journal: created=%v err=%v", created, err)
	}
	if again.ID != j.ID || again.Name != "Journal" {
		t.Errorf("get-or-create modified the journal: %+v", again)
	}

	for i := 0; i < 2; i++ {
		kw, created, err := s.GetOrCreateKeyword(ctx, "Geology")
		if err != nil {
			t.Fatal(err)
		}
		if created != (i == 0) {
			t.Errorf("pass %d: created = %v", i, created)
		}
		if kw.Word != "Geology" {
			t.Errorf("keyword = %+v", kw)
		}
	}
}

func TestImportRecordProvenance(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	j, _, _ := s.GetOrCreateJournal(ctx, "jrnl", "Journal")

	rec, created, err := s.GetOrCreateImportRecord(ctx, j.ID, "dump", "1045")
	if err != nil || !created {
		t.Fatalf("created=%v err=%v", created, err)
	}
	if rec.ArticleID != nil {
		t.Fatal("new record should have no article")
	}

	a := &catalog.Article{JournalID: j.ID, Title: "T", Stage: catalog.StageUnassigned, IsImport: true}
	if err := s.SaveArticle(ctx, a); err != nil {
		t.Fatal(err)
	}
	rec.ArticleID = &a.ID
	rec.SetExtra("path", "vol1/iss2/3")
	if err := s.SaveImportRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, created, err := s.GetOrCreateImportRecord(ctx, j.ID, "dump", "1045")
	if err != nil || created {
		t.Fatalf("reload: created=%v err=%v", created, err)
	}
	if got.ArticleID == nil || *got.ArticleID != a.ID {
		t.Errorf("ArticleID = %v, want %d", got.ArticleID, a.ID)
	}
	if p := got.GetExtraString("path"); p != "vol1/iss2/3" {
		t.Errorf("path provenance = %q", p)
	}

	if _, created, _ := s.GetOrCreateImportRecord(ctx, j.ID, "other-dump", "1045"); !created {
		t.Error("same id in another dump must be a different record")
	}
}

func TestArticleRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	j, _, _ := s.GetOrCreateJournal(ctx, "jrnl", "Journal")
	sec, _, _ := s.GetOrCreateSection(ctx, j.ID, "Articles")

	published := time.Date(2016, 2, 17, 8, 0, 0, 0, time.UTC)
	a := &catalog.Article{
		JournalID:     j.ID,
		Title:         "On Rocks",
		Stage:         catalog.StagePublished,
		DatePublished: &published,
		SectionID:     &sec.ID,
		TotalPages:    12,
		PeerReviewed:  true,
		IsImport:      true,
	}
	if err := s.SaveArticle(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.Title = "On Rocks, Revised"
	if err := s.SaveArticle(ctx, a); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetArticle(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "On Rocks, Revised" || !got.PeerReviewed || got.TotalPages != 12 {
		t.Errorf("article = %+v", got)
	}
	if got.DatePublished == nil || !got.DatePublished.Equal(published) {
		t.Errorf("DatePublished = %v", got.DatePublished)
	}
	if got.SectionID == nil || *got.SectionID != sec.ID {
		t.Errorf("SectionID = %v", got.SectionID)
	}
	if got.LicenseID != nil {
		t.Errorf("LicenseID = %v, want nil", got.LicenseID)
	}
	if n, _ := s.CountArticles(ctx, j.ID); n != 1 {
		t.Errorf("CountArticles = %d", n)
	}

	if _, err := s.GetArticle(ctx, 9999); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("missing article err = %v", err)
	}
}

func TestFrozenAuthorsIndividualAndCorporate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	j, _, _ := s.GetOrCreateJournal(ctx, "jrnl", "Journal")
	a := &catalog.Article{JournalID: j.ID, Title: "T", Stage: catalog.StageUnassigned}
	if err := s.SaveArticle(ctx, a); err != nil {
		t.Fatal(err)
	}

	fa := catalog.FrozenAuthor{ArticleID: a.ID, Order: 1, FirstName: "Ada", LastName: "Lovelace"}
	if _, created, err := s.UpdateOrCreateFrozenAuthor(ctx, fa); err != nil || !created {
		t.Fatalf("created=%v err=%v", created, err)
	}
	fa.Institution = "Analytical Society"
	updated, created, err := s.UpdateOrCreateFrozenAuthor(ctx, fa)
	if err != nil || created {
		t.Fatalf("update: created=%v err=%v", created, err)
	}
	if updated.Institution != "Analytical Society" {
		t.Errorf("institution not overwritten: %+v", updated)
	}

	// A corporate author may share an order slot with an individual.
	corp, created, err := s.GetOrCreateCorporateAuthor(ctx, a.ID, "Lehigh University", 1)
	if err != nil || !created || !corp.IsCorporate {
		t.Fatalf("corporate: %+v created=%v err=%v", corp, created, err)
	}
	if _, created, _ := s.GetOrCreateCorporateAuthor(ctx, a.ID, "Lehigh University", 2); created {
		t.Error("corporate author duplicated")
	}

	all, err := s.FrozenAuthors(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("FrozenAuthors = %d, want 2", len(all))
	}
}

func TestGalleyReplacedInPlace(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	j, _, _ := s.GetOrCreateJournal(ctx, "jrnl", "Journal")
	a := &catalog.Article{JournalID: j.ID, Title: "T", Stage: catalog.StageUnassigned}
	if err := s.SaveArticle(ctx, a); err != nil {
		t.Fatal(err)
	}

	g := catalog.Galley{ArticleID: a.ID, Kind: catalog.GalleyPDF, Label: "PDF", Filename: "a.pdf",
		MimeType: "application/pdf", StoragePath: "articles/1/one.pdf"}
	if _, created, err := s.UpdateOrCreateGalley(ctx, g); err != nil || !created {
		t.Fatalf("created=%v err=%v", created, err)
	}
	g.StoragePath = "articles/1/two.pdf"
	if _, created, err := s.UpdateOrCreateGalley(ctx, g); err != nil || created {
		t.Fatalf("replace: created=%v err=%v", created, err)
	}

	galleys, err := s.ListGalleys(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(galleys) != 1 || galleys[0].StoragePath != "articles/1/two.pdf" {
		t.Errorf("galleys = %+v", galleys)
	}
	if _, err := s.GetGalley(ctx, a.ID, catalog.GalleyHTML); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("html galley err = %v", err)
	}
}

func TestIssuesAndFieldAnswers(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	j, _, _ := s.GetOrCreateJournal(ctx, "jrnl", "Journal")
	a := &catalog.Article{JournalID: j.ID, Title: "T", Stage: catalog.StageUnassigned}
	if err := s.SaveArticle(ctx, a); err != nil {
		t.Fatal(err)
	}

	key := catalog.IssueKey{JournalID: j.ID, Volume: 3, Number: 2}
	issue, created, err := s.GetOrCreateIssue(ctx, key, catalog.Issue{})
	if err != nil || !created || issue.Type != catalog.IssueTypeIssue {
		t.Fatalf("issue %+v created=%v err=%v", issue, created, err)
	}
	for i := 0; i < 2; i++ {
		if err := s.AddIssueArticle(ctx, issue.ID, a.ID); err != nil {
			t.Fatal(err)
		}
	}
	if ids, _ := s.IssueArticles(ctx, issue.ID); len(ids) != 1 {
		t.Errorf("IssueArticles = %v", ids)
	}

	f, _, err := s.GetOrCreateField(ctx, j.ID, "Location", catalog.Field{Order: 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, created, _ := s.UpdateOrCreateFieldAnswer(ctx, f.ID, a.ID, "Bethlehem"); !created {
		t.Error("first answer should be created")
	}
	ans, created, err := s.UpdateOrCreateFieldAnswer(ctx, f.ID, a.ID, "Allentown")
	if err != nil || created || ans.Answer != "Allentown" {
		t.Errorf("answer %+v created=%v err=%v", ans, created, err)
	}
}

func TestBooksAndChapters(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b, created, err := s.GetOrCreateBook(ctx, "Collected Essays")
	if err != nil || !created {
		t.Fatalf("created=%v err=%v", created, err)
	}
	b.Publisher = "Lehigh University Press"
	if err := s.SaveBook(ctx, b); err != nil {
		t.Fatal(err)
	}

	c := &catalog.Chapter{BookID: b.ID, Title: "Chapter One", Sequence: 1}
	if err := s.SaveChapter(ctx, c); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveImportedChapter(ctx, catalog.ImportedChapter{BepressID: "77", ChapterID: c.ID}); err != nil {
		t.Fatal(err)
	}
	ic, err := s.GetImportedChapter(ctx, "77")
	if err != nil || ic.ChapterID != c.ID {
		t.Fatalf("imported chapter %+v err=%v", ic, err)
	}
	if _, err := s.GetImportedChapter(ctx, "78"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("missing chapter err = %v", err)
	}

	contrib, _, err := s.GetOrCreateContributor(ctx, catalog.Contributor{BookID: b.ID, FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddChapterContributor(ctx, c.ID, contrib.ID); err != nil {
		t.Fatal(err)
	}
	got, err := s.ChapterContributors(ctx, c.ID)
	if err != nil || len(got) != 1 || got[0].LastName != "Lovelace" {
		t.Errorf("ChapterContributors = %+v err=%v", got, err)
	}

	reloaded, err := s.GetBook(ctx, b.ID)
	if err != nil || reloaded.Publisher != "Lehigh University Press" {
		t.Errorf("book = %+v err=%v", reloaded, err)
	}
}
