package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/bepress-migrate/archive"
	"github.com/lehigh-university-libraries/bepress-migrate/config"
	_ "github.com/lehigh-university-libraries/bepress-migrate/format/bepresscsv"
	_ "github.com/lehigh-university-libraries/bepress-migrate/format/bepressxml"
	"github.com/lehigh-university-libraries/bepress-migrate/hub"
	"github.com/lehigh-university-libraries/bepress-migrate/mapping"
)

func TestImportSettingsPrecedence(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ArchiveRoot = "/srv/bepress"
	cfg.Import.Structure = "series"
	cfg.Import.Workers = 2
	cfg.Import.DefaultSection = "Papers"

	stamped := true
	profile := &mapping.Profile{Structure: "events", Stamped: &stamped, SectionField: "section"}

	got, err := importSettings(importCmd, &cfg, profile)
	if err != nil {
		t.Fatal(err)
	}
	if got.Structure != hub.StructureEvents || !got.Stamped || got.SectionField != "section" {
		t.Errorf("profile values not applied: %+v", got)
	}
	if got.DefaultSection != "Papers" || got.Workers != 2 || got.ArchiveRoot != "/srv/bepress" {
		t.Errorf("config values lost: %+v", got)
	}

	if err := importCmd.Flags().Set("structure", "books"); err != nil {
		t.Fatal(err)
	}
	if err := importCmd.Flags().Set("workers", "8"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		importCmd.Flags().Lookup("structure").Changed = false
		importCmd.Flags().Lookup("workers").Changed = false
		importStructure, importWorkers = "", 0
	})

	got, err = importSettings(importCmd, &cfg, profile)
	if err != nil {
		t.Fatal(err)
	}
	if got.Structure != hub.StructureBooks || got.Workers != 8 {
		t.Errorf("flags did not override: %+v", got)
	}
}

func TestImportSettingsRejectsStructure(t *testing.T) {
	cfg := config.Default()
	cfg.Import.Structure = "magazine"
	if _, err := importSettings(importCmd, &cfg, nil); err == nil {
		t.Error("expected an error for an unknown structure")
	}
}

func TestPrintSummaryPlain(t *testing.T) {
	var buf bytes.Buffer
	err := printSummary(&buf, archive.Summary{Export: "jrnl", Processed: 3, Created: 2, Failed: 1, Duration: 1500 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"export=jrnl\n", "processed=3\n", "created=2\n", "failed=1\n", "duration=1.5s\n"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, buf.String())
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a rather long title", 10); got != "a rathe..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("Études géologiques", 8); got != "Étude..." {
		t.Errorf("truncate = %q", got)
	}
}

const sampleCSV = "title,author1_fname,author1_lname,context_key,issue\n" +
	"On Rocks,Ada,Lovelace,1045,vol1/iss2\n"

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<documents><document><title>On Rocks</title><articleid>1045</articleid></document></documents>
`

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runValidateOn(t *testing.T, path string, render bool, args ...string) string {
	t.Helper()
	validateInput, validateRender = path, render
	t.Cleanup(func() { validateInput, validateRender = "", false })

	var buf bytes.Buffer
	validateCmd.SetOut(&buf)
	t.Cleanup(func() { validateCmd.SetOut(nil) })
	if err := runValidate(validateCmd, args); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return buf.String()
}

func TestValidateDetectsFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"xml", "metadata.xml", sampleXML, "parsed 1 xml documents"},
		{"csv saved as txt", "export.txt", sampleCSV, "parsed 1 csv documents"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runValidateOn(t, writeInput(t, tt.file, tt.content), false)
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestValidateRendersXML(t *testing.T) {
	out := runValidateOn(t, writeInput(t, "export.csv", sampleCSV), true, "csv")
	for _, want := range []string{"<documents>", "<title>On Rocks</title>", "<lname>Lovelace</lname>"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered output missing %q:\n%s", want, out)
		}
	}
}

func TestConvertRejectsNonCSV(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "missing.toml")
	t.Cleanup(func() { configPath = "" })

	err := runConvert(convertCmd, []string{writeInput(t, "metadata.csv", sampleXML)})
	if err == nil || !strings.Contains(err.Error(), "not a bepress CSV export") {
		t.Errorf("err = %v", err)
	}
}
