package oai

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/lehigh-university-libraries/bepress-migrate/fetch"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const firstPage = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
<ListRecords>
<record>
<header><identifier>oai:example.edu:jrnl-1001</identifier></header>
<metadata>
<document-export xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<documents>
<document>
<title>Harvested &amp; Kept</title>
<articleid>1001</articleid>
<submission-path>jrnl/vol1/iss1/1</submission-path>
</document>
</documents>
</document-export>
</metadata>
</record>
<record>
<header status="deleted"><identifier>oai:example.edu:jrnl-1002</identifier></header>
</record>
<resumptionToken>page-2</resumptionToken>
</ListRecords>
</OAI-PMH>`

const secondPage = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
<ListRecords>
<record>
<header><identifier>oai:example.edu:jrnl-1003</identifier></header>
<metadata><documents><document><articleid>1003</articleid></document></documents></metadata>
</record>
<record>
<header><identifier>oai:example.edu:jrnl-1004</identifier></header>
<metadata><documents><document><articleid>1004</articleid><submission-path>../escape</submission-path></document></documents></metadata>
</record>
<record>
<header><identifier>oai:example.edu:jrnl-1005</identifier></header>
<metadata><documents><document><articleid>1005</articleid><submission-path>jrnl/vol1/iss2/5</submission-path></document></documents></metadata>
</record>
<resumptionToken/>
</ListRecords>
</OAI-PMH>`

func TestHarvestFollowsResumptionToken(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		w.Header().Set("Content-Type", "text/xml")
		if r.URL.Query().Get("resumptionToken") == "page-2" {
			_, _ = io.WriteString(w, secondPage)
			return
		}
		_, _ = io.WriteString(w, firstPage)
	}))
	defer srv.Close()

	root := t.TempDir()
	h := &Harvester{Client: fetch.New(fetch.Config{Logger: quietLogger}), ArchiveRoot: root, Logger: quietLogger}
	stats, err := h.Harvest(context.Background(), srv.URL+"/do/oai/", "publication:jrnl")
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	if stats.Pages != 2 || stats.Records != 5 || stats.Written != 2 || stats.Skipped != 3 {
		t.Errorf("stats = %+v", stats)
	}

	if len(queries) != 2 {
		t.Fatalf("queries = %v", queries)
	}
	for _, want := range []string{"verb=ListRecords", "metadataPrefix=document-export", "set=publication%3Ajrnl"} {
		if !strings.Contains(queries[0], want) {
			t.Errorf("first query %q missing %q", queries[0], want)
		}
	}
	if !strings.Contains(queries[1], "resumptionToken=page-2") || strings.Contains(queries[1], "metadataPrefix") {
		t.Errorf("second query = %q", queries[1])
	}

	data, err := os.ReadFile(filepath.Join(root, "jrnl", "vol1", "iss1", "1", "metadata.xml"))
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.HasPrefix(got, "<?xml") || !strings.Contains(got, "<documents>") || !strings.Contains(got, "Harvested &amp; Kept") {
		t.Errorf("metadata.xml =\n%s", got)
	}
	if strings.Contains(got, "document-export") {
		t.Error("envelope leaked into metadata.xml")
	}
	if _, err := os.Stat(filepath.Join(root, "jrnl", "vol1", "iss2", "5", "metadata.xml")); err != nil {
		t.Error(err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape")); err == nil {
		t.Error("record escaped the archive root")
	}
}

func TestHarvestNoRecordsMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<OAI-PMH><error code="noRecordsMatch">nothing</error></OAI-PMH>`)
	}))
	defer srv.Close()

	h := &Harvester{Client: fetch.New(fetch.Config{Logger: quietLogger}), ArchiveRoot: t.TempDir(), Logger: quietLogger}
	stats, err := h.Harvest(context.Background(), srv.URL, "")
	if err != nil || stats.Records != 0 {
		t.Errorf("stats = %+v, err = %v", stats, err)
	}
}

func TestHarvestReportsFeedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<OAI-PMH><error code="cannotDisseminateFormat">bad prefix</error></OAI-PMH>`)
	}))
	defer srv.Close()

	h := &Harvester{Client: fetch.New(fetch.Config{Logger: quietLogger}), ArchiveRoot: t.TempDir(), Logger: quietLogger}
	if _, err := h.Harvest(context.Background(), srv.URL, ""); err == nil || !strings.Contains(err.Error(), "cannotDisseminateFormat") {
		t.Errorf("err = %v", err)
	}
}

func TestDocumentsElement(t *testing.T) {
	got, err := DocumentsElement([]byte(`<wrap><x/><documents a="1"><document/></documents><documents/></wrap>`))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `<documents a="1"><document/></documents>` {
		t.Errorf("got %q", got)
	}
	if got, _ := DocumentsElement([]byte(`<wrap/>`)); got != nil {
		t.Errorf("got %q, want nil", got)
	}
}
