package mapping

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedProfilesLoad(t *testing.T) {
	registry, err := NewProfileRegistry()
	if err != nil {
		t.Fatalf("NewProfileRegistry: %v", err)
	}
	for _, name := range []string{"default", "events", "books"} {
		if _, ok := registry.Get(name); !ok {
			t.Errorf("embedded profile %q missing", name)
		}
	}

	events, _ := registry.Get("events")
	names := events.CustomFieldNames()
	want := []string{"event_date", "location", "streaming_media"}
	if len(names) != len(want) {
		t.Fatalf("CustomFieldNames = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("CustomFieldNames[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestResolveOverlaysProfileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "law-review.yaml")
	content := `
section_field: Section_Key
stamped: true
custom_fields:
  Orcid_ID:
    field: ORCID
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Name != "law-review" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.Structure != "journal" {
		t.Errorf("Structure = %q, want base value", p.Structure)
	}
	if !p.IsStamped() {
		t.Error("custom stamped flag lost in merge")
	}
	if p.DefaultSection != "Articles" {
		t.Errorf("DefaultSection = %q", p.DefaultSection)
	}
	if m, ok := p.GetFieldMapping("orcid_id"); !ok || m.Field != "ORCID" {
		t.Errorf("GetFieldMapping = %+v, %v", m, ok)
	}
}

func TestParseProfileRejectsUntargetedField(t *testing.T) {
	_, err := LoadProfileFromString("custom_fields:\n  doi: {}\n")
	if err == nil {
		t.Fatal("expected an error for a custom field with no target")
	}
}

func TestProfileDefaults(t *testing.T) {
	var p *Profile
	if got := p.GetKeywordSeparator(); got != ";" {
		t.Errorf("GetKeywordSeparator = %q", got)
	}
	if got := p.GetCSVDelimiter(); got != ',' {
		t.Errorf("GetCSVDelimiter = %q", got)
	}
	if p.IsStamped() {
		t.Error("nil profile reported stamped")
	}
}
