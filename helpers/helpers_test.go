package helpers

import (
	"strings"
	"testing"
)

func TestWithStampVariant(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		stamped bool
		want    string
	}{
		{"swap existing token", "http://x/pdf?unstamped=0", false, "http://x/pdf?unstamped=1"},
		{"no query", "http://x/pdf", false, "http://x/pdf?unstamped=1"},
		{"existing query", "http://x/pdf?a=1", false, "http://x/pdf?a=1&unstamped=1"},
		{"already unstamped", "http://x/pdf?unstamped=1", false, "http://x/pdf?unstamped=1"},
		{"stamped swaps back", "http://x/pdf?article=9&unstamped=1", true, "http://x/pdf?article=9&unstamped=0"},
		{"stamped appends", "http://x/pdf", true, "http://x/pdf?unstamped=0"},
		{"empty", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithStampVariant(tt.url, tt.stamped); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnstampedNeverKeepsOldToken(t *testing.T) {
	got := Unstamped("http://x/pdf?unstamped=0")
	if !strings.Contains(got, "unstamped=1") || strings.Contains(got, "unstamped=0") {
		t.Errorf("Unstamped = %q", got)
	}
	if got := Unstamped("http://x/pdf"); !strings.HasSuffix(got, "?unstamped=1") {
		t.Errorf("Unstamped without query = %q", got)
	}
	if got := Unstamped("http://x/pdf?a=1"); !strings.HasSuffix(got, "&unstamped=1") {
		t.Errorf("Unstamped with query = %q", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantYear int
		wantNil  bool
		wantErr  bool
	}{
		{"rfc3339 with offset", "2016-02-17T00:00:00-08:00", 2016, false, false},
		{"space separated", "1999-01-01 00:00", 1999, false, false},
		{"date only", "2015-03-12", 2015, false, false},
		{"corrupt time part", "2015-03-12Tgarbage", 2015, false, false},
		{"blank", "  ", 0, true, false},
		{"garbage", "not a date", 0, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("got %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("got nil time")
			}
			if got.Year() != tt.wantYear {
				t.Errorf("year = %d, want %d", got.Year(), tt.wantYear)
			}
		})
	}
}

func TestQueryParam(t *testing.T) {
	v, ok := QueryParam("https://ex.org/cgi/viewcontent.cgi?article=1045&context=jrnl", "article")
	if !ok || v != "1045" {
		t.Errorf("QueryParam = %q, %v", v, ok)
	}
	if _, ok := QueryParam("https://ex.org/file.pdf", "article"); ok {
		t.Error("expected no article parameter")
	}
}

func TestNormalizeLicenseURL(t *testing.T) {
	got := NormalizeLicenseURL("http://creativecommons.org/licenses/by/4.0/")
	if got != "https://creativecommons.org/licenses/by/4.0" {
		t.Errorf("got %q", got)
	}
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"12", 12, true},
		{"12 Pages", 12, true},
		{"Pages", 0, false},
	}
	for _, tt := range tests {
		got, ok := LeadingInt(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("LeadingInt(%q) = %d, %v", tt.in, got, ok)
		}
	}
}

func TestNormalizeKeyword(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	got := NormalizeKeyword("  cafe\u0301   society ")
	if got != "caf\u00e9 society" {
		t.Errorf("got %q", got)
	}
	if a, b := NormalizeKeyword("Earth\u00a0Sciences"), NormalizeKeyword("Earth Sciences"); a != b {
		t.Errorf("non-breaking space kept: %q != %q", a, b)
	}
}

func TestMimeHelpers(t *testing.T) {
	if !IsHTMLMime("text/html; charset=utf-8") {
		t.Error("text/html with charset should be HTML")
	}
	if IsHTMLMime("application/pdf") {
		t.Error("pdf is not HTML")
	}
	if !IsImageMime("image/png") {
		t.Error("png should be an image")
	}
	if got := CleanText("<p>Hello&nbsp;<b>world</b></p>\n\n"); got != "Hello world" {
		t.Errorf("CleanText = %q", got)
	}
}
