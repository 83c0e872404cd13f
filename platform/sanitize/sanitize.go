// Package sanitize cleans free text entered by operators and applicants
// before it is stored or echoed into notification emails.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
	entities     = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
	)
)

// StripHTML removes markup, decodes the common entities and strips again so
// encoded tags do not survive.
func StripHTML(s string) string {
	out := tagPattern.ReplaceAllString(s, "")
	out = entities.Replace(out)
	out = tagPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// Text strips markup and collapses runs of whitespace to a single space.
func Text(s string) string {
	return spacePattern.ReplaceAllString(StripHTML(s), " ")
}

// TextPtr applies Text to an optional value. Blank results become nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	if out == "" {
		return nil
	}
	return &out
}
