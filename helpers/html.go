package helpers

import (
	"html"
	"mime"
	"regexp"
	"strings"
)

var (
	htmlTagRegex     = regexp.MustCompile(`<[^>]*>`)
	htmlCommentRegex = regexp.MustCompile(`<!--[\s\S]*?-->`)
	multiSpaceRegex  = regexp.MustCompile(`[\s\p{Zs}]+`)
	brTagRegex       = regexp.MustCompile(`<br\s*/?>`)
	blockEndRegex    = regexp.MustCompile(`</(?:p|div|li|h[1-6]|blockquote|tr)>`)
)

// HTMLMimeTypes are the content types attached as HTML galleys.
var HTMLMimeTypes = map[string]bool{
	"text/html":             true,
	"application/xhtml+xml": true,
	"text/htm":              true,
}

// ImageMimeTypes are the content types attached as image galleys.
var ImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/tiff": true,
	"image/webp": true,
}

// StripHTML removes tags and comments and decodes entities.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	s = htmlCommentRegex.ReplaceAllString(s, "")
	s = blockEndRegex.ReplaceAllString(s, "\n")
	s = brTagRegex.ReplaceAllString(s, "\n")
	s = htmlTagRegex.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// CleanText strips HTML and collapses whitespace.
func CleanText(s string) string {
	return NormalizeWhitespace(StripHTML(s))
}

// NormalizeWhitespace collapses whitespace runs, non-breaking spaces
// included, into single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(multiSpaceRegex.ReplaceAllString(s, " "))
}

// IsHTML checks if a string appears to contain HTML markup.
func IsHTML(s string) bool {
	return htmlTagRegex.MatchString(s)
}

// MediaType returns the lower-cased media type of a Content-Type value
// without parameters, or "" when it cannot be parsed.
func MediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

// IsHTMLMime reports whether a content type belongs to the HTML family.
func IsHTMLMime(contentType string) bool {
	return HTMLMimeTypes[MediaType(contentType)]
}

// IsImageMime reports whether a content type is a supported image.
func IsImageMime(contentType string) bool {
	return ImageMimeTypes[MediaType(contentType)]
}
