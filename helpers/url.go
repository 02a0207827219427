package helpers

import (
	"net/url"
	"strings"
)

// Stamp variant query tokens.
const (
	unstampedOn  = "unstamped=1"
	unstampedOff = "unstamped=0"
)

// WithStampVariant rewrites a bepress fulltext URL so that it points at the
// requested PDF variant. bepress serves the cover-stamped PDF for
// unstamped=0 and the plain PDF for unstamped=1.
//
// An existing opposite token is swapped in place; otherwise the wanted token
// is appended as a new or additional query parameter.
func WithStampVariant(rawURL string, stamped bool) string {
	if rawURL == "" {
		return ""
	}
	want, have := unstampedOn, unstampedOff
	if stamped {
		want, have = unstampedOff, unstampedOn
	}

	switch {
	case strings.Contains(rawURL, want):
		return rawURL
	case strings.Contains(rawURL, have):
		return strings.Replace(rawURL, have, want, 1)
	case strings.Contains(rawURL, "?"):
		return rawURL + "&" + want
	default:
		return rawURL + "?" + want
	}
}

// Unstamped is WithStampVariant(rawURL, false).
func Unstamped(rawURL string) string {
	return WithStampVariant(rawURL, false)
}

// QueryParam returns the first value of a query parameter of rawURL.
func QueryParam(rawURL, name string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(u.Query().Get(name))
	return v, v != ""
}

// IsHTTPURL reports whether s is an absolute http(s) URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NormalizeLicenseURL strips a trailing slash and upgrades http to https so
// that the same licence exported both ways maps to one record.
func NormalizeLicenseURL(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "/")
	return strings.Replace(s, "http:", "https:", 1)
}
