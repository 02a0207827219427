package bepressxml

import (
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/bepress-migrate/format"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
)

const sampleDocument = `<?xml version='1.0' encoding='iso-8859-1' ?>
<documents>
<document>
<title>Tidal Flats &amp; Their Discontents</title>
<publication-date>2016-02-17T00:00:00-08:00</publication-date>
<submission-date>2016-01-05Tnonsense</submission-date>
<authors>
<author xsi:type="individual">
<email>ada@example.edu</email>
<institution>Lehigh University</institution>
<lname>Lovelace</lname>
<fname>Ada</fname>
<suffix>Jr.</suffix>
</author>
<author xsi:type="corporate">
<organization>Marine Survey Group</organization>
</author>
<author>
</author>
<author xsi:type="individual">
<institution>Unknown</institution>
<lname></lname>
<fname></fname>
</author>
</authors>
<keywords>
<keyword>estuaries</keyword>
<keyword>sediment</keyword>
<keyword>estuaries</keyword>
</keywords>
<abstract>&lt;p&gt;Mudflats.&lt;/p&gt;</abstract>
<fulltext-url>https://example.edu/cgi/viewcontent.cgi?article=1045&amp;context=jrnl</fulltext-url>
<document-type>article</document-type>
<articleid>1045</articleid>
<publication-title>Journal of Coasts</publication-title>
<fpage>3</fpage>
<lpage>19</lpage>
<fields>
<field name="doi" type="string"><value>10.1234/coast.1045</value></field>
<field name="distribution_license" type="string"><value>http://creativecommons.org/licenses/by/4.0/</value></field>
<field name="peer_reviewed" type="boolean"><value>true</value></field>
<field name="multimedia_format" type="string"><value>YouTube</value></field>
<field name="multimedia_url" type="string"><value>https://youtu.be/xyz</value></field>
<field name="empty" type="string"></field>
</fields>
<supplemental-files>
<file>
<archive-name>appendix.html</archive-name>
<upload-name>appendix.html</upload-name>
<url>https://example.edu/appendix.html</url>
<mime-type>text/html</mime-type>
<description>Appendix</description>
</file>
</supplemental-files>
</document>
</documents>`

func parseOne(t *testing.T, input string) *hub.Document {
	t.Helper()
	doc, err := ParseDocument(strings.NewReader(input), &format.ParseOptions{PathHint: "vol1/iss2/3"})
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return doc
}

func TestParseDocument(t *testing.T) {
	doc := parseOne(t, sampleDocument)

	if doc.ExternalID != "1045" {
		t.Errorf("ExternalID = %q", doc.ExternalID)
	}
	if doc.Title != "Tidal Flats & Their Discontents" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.PathHint != "vol1/iss2/3" {
		t.Errorf("PathHint = %q", doc.PathHint)
	}
	if doc.PublishedAt == nil || doc.PublishedAt.Year() != 2016 {
		t.Errorf("PublishedAt = %v", doc.PublishedAt)
	}
	if doc.SubmittedAt == nil || doc.SubmittedAt.Day() != 5 {
		t.Errorf("SubmittedAt = %v, want date-only fallback", doc.SubmittedAt)
	}
	if !doc.HasFulltextURL || !strings.Contains(doc.FulltextURL, "article=1045") {
		t.Errorf("FulltextURL = %q (present=%v)", doc.FulltextURL, doc.HasFulltextURL)
	}
	if got := strings.Join(doc.Keywords, ","); got != "estuaries,sediment" {
		t.Errorf("Keywords = %q", got)
	}
	if doc.Pages() != "3-19" {
		t.Errorf("Pages = %q", doc.Pages())
	}
	if doc.LicenseURL != "http://creativecommons.org/licenses/by/4.0/" {
		t.Errorf("LicenseURL = %q", doc.LicenseURL)
	}
	if !doc.PeerReviewed {
		t.Error("PeerReviewed = false")
	}
	if doc.Media == nil || doc.Media.Format != "youtube" || doc.Media.URL != "https://youtu.be/xyz" {
		t.Errorf("Media = %+v", doc.Media)
	}
	if v, ok := doc.Fields.Get("doi"); !ok || v != "10.1234/coast.1045" {
		t.Errorf("doi = %q, %v", v, ok)
	}
	if _, ok := doc.Fields.Get("empty"); ok {
		t.Error("valueless field reported as present")
	}
	if len(doc.SupplementalFiles) != 1 || doc.SupplementalFiles[0].MimeType != "text/html" {
		t.Errorf("SupplementalFiles = %+v", doc.SupplementalFiles)
	}
}

func TestParseAuthors(t *testing.T) {
	doc := parseOne(t, sampleDocument)

	if len(doc.Authors) != 3 {
		t.Fatalf("got %d authors, want 3 (empty element skipped): %+v", len(doc.Authors), doc.Authors)
	}

	first := doc.Authors[0]
	if first.FirstName != "Ada" || first.LastName != "Lovelace" || first.Suffix != "Jr." || first.IsCorporate {
		t.Errorf("first author = %+v", first)
	}

	corp := doc.Authors[1]
	if !corp.IsCorporate || corp.Institution != "Marine Survey Group" {
		t.Errorf("corporate author = %+v", corp)
	}

	blank := doc.Authors[2]
	if blank.IsCorporate || blank.FirstName != "" || blank.Institution != "Unknown" {
		t.Errorf("blank-named author = %+v", blank)
	}
}

func TestParseMissingElements(t *testing.T) {
	doc := parseOne(t, `<document><title>Only a title</title><articleid>7</articleid></document>`)

	if doc.HasFulltextURL {
		t.Error("absent fulltext-url reported as present")
	}
	if doc.PublishedAt != nil {
		t.Errorf("PublishedAt = %v, want nil", doc.PublishedAt)
	}
	if _, ok := doc.Fields.Get(hub.FieldDOI); ok {
		t.Error("missing fields bag yielded a value")
	}
	if doc.Media != nil {
		t.Errorf("Media = %+v", doc.Media)
	}
}

func TestParseEmptyFulltextElementIsPresent(t *testing.T) {
	doc := parseOne(t, `<document><articleid>7</articleid><fulltext-url></fulltext-url></document>`)
	if !doc.HasFulltextURL {
		t.Error("empty fulltext-url element should count as present")
	}
	if doc.FulltextURL != "" {
		t.Errorf("FulltextURL = %q", doc.FulltextURL)
	}
}

func TestParseUnparseableDate(t *testing.T) {
	doc := parseOne(t, `<document><articleid>7</articleid><publication-date>sometime</publication-date></document>`)
	if doc.PublishedAt != nil {
		t.Errorf("PublishedAt = %v, want nil", doc.PublishedAt)
	}
}

func TestParseNoDocument(t *testing.T) {
	if _, err := ParseDocument(strings.NewReader(`<other/>`), nil); err == nil {
		t.Fatal("expected an error when no document element exists")
	}
}

func TestRenderParsesBack(t *testing.T) {
	doc := parseOne(t, sampleDocument)

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "<organization>Marine Survey Group</organization>") {
		t.Errorf("rendered XML lost the corporate author:\n%s", out)
	}

	again := parseOne(t, out)
	if again.ExternalID != doc.ExternalID || again.Title != doc.Title {
		t.Errorf("re-parsed document = %q %q", again.ExternalID, again.Title)
	}
	if len(again.Authors) != len(doc.Authors) {
		t.Errorf("re-parsed %d authors, want %d", len(again.Authors), len(doc.Authors))
	}
	if again.Media == nil || again.Media.URL != doc.Media.URL {
		t.Errorf("re-parsed Media = %+v", again.Media)
	}
	if _, ok := doc.Fields.Get(hub.FieldLanguage); ok {
		t.Error("Render mutated the source document's fields")
	}
}

func TestCanParse(t *testing.T) {
	f := &Format{}
	if !f.CanParse([]byte("  <?xml version='1.0'?>\n<documents>")) {
		t.Error("expected bepress XML to be detected")
	}
	if f.CanParse([]byte("title,abstract\n")) {
		t.Error("CSV detected as XML")
	}
}
