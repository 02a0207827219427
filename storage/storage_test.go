package storage

import (
	"os"
	"strings"
	"testing"
)

func TestSaveArticleFile(t *testing.T) {
	d := NewDisk(t.TempDir())
	rel, err := d.SaveArticleFile(12, "Paper.PDF", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("SaveArticleFile: %v", err)
	}
	if !strings.HasPrefix(rel, "articles/12/") || !strings.HasSuffix(rel, ".pdf") {
		t.Errorf("rel = %q", rel)
	}
	data, err := os.ReadFile(d.Path(rel))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("content = %q", data)
	}

	other, _ := d.SaveArticleFile(12, "Paper.PDF", []byte("x"))
	if other == rel {
		t.Error("saving twice must not overwrite the first file")
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"article.html": ".html",
		"noext":        "",
		"a.":           "",
		"weird.p df":   "",
	}
	for in, want := range tests {
		if got := extension(in); got != want {
			t.Errorf("extension(%q) = %q, want %q", in, got, want)
		}
	}
}
