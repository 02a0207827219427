package bepresscsv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bepress-migrate/format/bepressxml"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

func TestConvertWritesMetadataTree(t *testing.T) {
	root := t.TempDir()
	docs := []*hub.Document{
		{ExternalID: "1045", Title: "Tidal Flats", Issue: "jrnl/vol1/iss2", Keywords: []string{"a", "b"}},
		{ExternalID: "9", Title: "Escape", Issue: "../../etc"},
	}

	c := &Converter{Root: root}
	outs, err := c.Convert(context.Background(), docs)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("got %d outputs, want 1 (escaping path skipped)", len(outs))
	}

	want := filepath.Join(root, "jrnl", "vol1", "iss2", "1045", MetadataFilename)
	if outs[0].Path != want {
		t.Errorf("Path = %q, want %q", outs[0].Path, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := bepressxml.ParseDocument(strings.NewReader(string(data)), nil)
	if err != nil {
		t.Fatalf("written XML does not parse: %v", err)
	}
	if doc.ExternalID != "1045" || strings.Join(doc.Keywords, ",") != "a,b" {
		t.Errorf("parsed back %q %v", doc.ExternalID, doc.Keywords)
	}
}

func TestConvertDryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	c := &Converter{Root: root, DryRun: true}
	outs, err := c.Convert(context.Background(), []*hub.Document{{ExternalID: "1", Title: "T", Issue: "x"}})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(outs) != 1 || outs[0].Path != "" || !strings.Contains(outs[0].XML, "<title>T</title>") {
		t.Errorf("outputs = %+v", outs)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("dry run wrote %d entries", len(entries))
	}
}
