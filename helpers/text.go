package helpers

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeKeyword returns the NFC form of a keyword with collapsed
// whitespace. Keywords are shared across documents, so visually identical
// words must compare equal.
func NormalizeKeyword(s string) string {
	return NormalizeWhitespace(norm.NFC.String(s))
}

// SplitList splits a delimited list and trims each token, dropping blanks.
func SplitList(value, sep string) []string {
	if sep == "" {
		sep = ";"
	}
	parts := strings.Split(value, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// LeadingInt parses values such as "12 Pages" into 12.
func LeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	head, _, _ := strings.Cut(s, " ")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return n, true
}
