// Package htmlsanitize cleans admin-supplied HTML (the site notice) and
// strips markup from spreadsheet text before it is logged or flashed.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	rich   = newRichPolicy()
	strict = bluemonday.StrictPolicy()
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td", "p", "span", "div")
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	p.AllowElements("u", "s", "mark")
	return p
}

// Sanitize keeps formatting, lists, tables and safe links and drops
// scripts, styles, frames and event handlers.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return rich.Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for direct use in templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// PlainText removes every tag, leaving only text content.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains nothing that looks like a tag.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
