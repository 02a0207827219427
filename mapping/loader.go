package mapping

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var embeddedProfiles embed.FS

// DefaultProfileName is the embedded profile used when none is selected.
const DefaultProfileName = "default"

// ProfileRegistry holds loaded profiles.
type ProfileRegistry struct {
	profiles map[string]*Profile
}

// NewProfileRegistry creates a new profile registry with embedded profiles loaded.
func NewProfileRegistry() (*ProfileRegistry, error) {
	r := &ProfileRegistry{
		profiles: make(map[string]*Profile),
	}

	entries, err := embeddedProfiles.ReadDir("profiles")
	if err != nil {
		return r, nil // No embedded profiles, that's okay
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := embeddedProfiles.ReadFile("profiles/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading embedded profile %s: %w", entry.Name(), err)
		}

		profile, err := parseProfile(data)
		if err != nil {
			return nil, fmt.Errorf("embedded profile %s: %w", entry.Name(), err)
		}

		// Use filename without extension as profile name if not set
		if profile.Name == "" {
			profile.Name = strings.TrimSuffix(entry.Name(), ".yaml")
		}
		r.profiles[profile.Name] = profile
	}

	return r, nil
}

// LoadProfile loads a profile from a file path.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile file: %w", err)
	}

	profile, err := parseProfile(data)
	if err != nil {
		return nil, err
	}
	if profile.Name == "" {
		profile.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return profile, nil
}

// LoadProfileFromString loads a profile from YAML content.
func LoadProfileFromString(content string) (*Profile, error) {
	return parseProfile([]byte(content))
}

func parseProfile(data []byte) (*Profile, error) {
	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parsing profile YAML: %w", err)
	}

	// bepress field names are matched case-insensitively
	if len(profile.CustomFields) > 0 {
		normalized := make(map[string]FieldMapping, len(profile.CustomFields))
		for name, m := range profile.CustomFields {
			if m.Field == "" {
				return nil, fmt.Errorf("custom field %q has no target field", name)
			}
			normalized[strings.ToLower(strings.TrimSpace(name))] = m
		}
		profile.CustomFields = normalized
	}
	return &profile, nil
}

// Get retrieves a profile by name.
func (r *ProfileRegistry) Get(name string) (*Profile, bool) {
	p, ok := r.profiles[name]
	return p, ok
}

// Register adds a profile to the registry.
func (r *ProfileRegistry) Register(profile *Profile) {
	r.profiles[profile.Name] = profile
}

// List returns all registered profile names in sorted order.
func (r *ProfileRegistry) List() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFromDirectory loads all profiles from a directory.
func (r *ProfileRegistry) LoadFromDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading profile directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		profile, err := LoadProfile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue // Skip invalid profiles
		}
		r.profiles[profile.Name] = profile
	}

	return nil
}

// MergeProfiles merges a custom profile over a base profile.
// Custom values override base values; custom fields are added to base fields.
func MergeProfiles(base, custom *Profile) *Profile {
	if base == nil {
		return custom
	}
	if custom == nil {
		return base
	}

	merged := &Profile{
		Name:           custom.Name,
		Description:    custom.Description,
		Structure:      custom.Structure,
		Stamped:        custom.Stamped,
		SectionField:   custom.SectionField,
		DefaultSection: custom.DefaultSection,
		CustomFields:   make(map[string]FieldMapping),
		Options:        base.Options,
	}

	if merged.Description == "" {
		merged.Description = base.Description
	}
	if merged.Structure == "" {
		merged.Structure = base.Structure
	}
	if merged.Stamped == nil {
		merged.Stamped = base.Stamped
	}
	if merged.SectionField == "" {
		merged.SectionField = base.SectionField
	}
	if merged.DefaultSection == "" {
		merged.DefaultSection = base.DefaultSection
	}

	for k, v := range base.CustomFields {
		merged.CustomFields[k] = v
	}
	for k, v := range custom.CustomFields {
		merged.CustomFields[k] = v
	}

	if custom.Options.CSVDelimiter != "" {
		merged.Options.CSVDelimiter = custom.Options.CSVDelimiter
	}
	if custom.Options.KeywordSeparator != "" {
		merged.Options.KeywordSeparator = custom.Options.KeywordSeparator
	}
	if custom.Options.StripHTML {
		merged.Options.StripHTML = true
	}

	return merged
}

// Resolve returns the default embedded profile, overlaid with the profile
// file at path when one is given.
func Resolve(path string) (*Profile, error) {
	registry, err := NewProfileRegistry()
	if err != nil {
		return nil, err
	}
	base, _ := registry.Get(DefaultProfileName)
	if path == "" {
		return base, nil
	}
	custom, err := LoadProfile(path)
	if err != nil {
		return nil, err
	}
	return MergeProfiles(base, custom), nil
}
