package hub

import (
	"strconv"
	"strings"
)

// Author is one entry of a document's ordered author list.
//
// When IsCorporate is set the name fields are unused and Institution holds the
// organization display name.
type Author struct {
	FirstName   string
	MiddleName  string
	LastName    string
	Suffix      string
	Email       string
	Institution string
	IsCorporate bool
}

// IsBlank reports whether every field of the author is empty.
func (a Author) IsBlank() bool {
	return strings.TrimSpace(a.FirstName) == "" &&
		strings.TrimSpace(a.MiddleName) == "" &&
		strings.TrimSpace(a.LastName) == "" &&
		strings.TrimSpace(a.Suffix) == "" &&
		strings.TrimSpace(a.Email) == "" &&
		strings.TrimSpace(a.Institution) == "" &&
		!a.IsCorporate
}

// String returns a deterministic representation of the author's own field
// values. Dummy account emails are derived from it, so the format must stay
// stable across releases.
func (a Author) String() string {
	var b strings.Builder
	b.WriteString("author{")
	writePair(&b, "fname", a.FirstName)
	writePair(&b, "mname", a.MiddleName)
	writePair(&b, "lname", a.LastName)
	writePair(&b, "suffix", a.Suffix)
	writePair(&b, "email", a.Email)
	writePair(&b, "institution", a.Institution)
	b.WriteString("corporate=")
	b.WriteString(strconv.FormatBool(a.IsCorporate))
	b.WriteString("}")
	return b.String()
}

func writePair(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(strconv.Quote(value))
	b.WriteString(";")
}

// DisplayName returns "First Middle Last Suffix", or the institution for
// corporate authors.
func (a Author) DisplayName() string {
	if a.IsCorporate {
		return a.Institution
	}
	var parts []string
	for _, p := range []string{a.FirstName, a.MiddleName, a.LastName, a.Suffix} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ParseBool interprets the truthy spellings found in bepress exports.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y":
		return true
	default:
		return false
	}
}
