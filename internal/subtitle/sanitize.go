package subtitle

import (
	"regexp"
	"strings"
)

// LineBreak is the single line-break token of sanitized markup.
const LineBreak = "<br>"

var (
	// an & that already starts a character reference is left alone
	ampersandRe = regexp.MustCompile(`&(#[0-9]+;|#[xX][0-9a-fA-F]+;|[a-zA-Z][a-zA-Z0-9]*;)?`)

	escapedBreakRe = regexp.MustCompile(`(?i)&lt;\s*br\s*/?\s*&gt;`)
	bracedBreakRe  = regexp.MustCompile(`\{\s*\\N\s*\}`)
	escapedStyleRe = regexp.MustCompile(`(?i)&lt;(/?)([ibu])&gt;`)
)

// Sanitize escapes everything in raw subtitle text except a fixed whitelist:
// line breaks (<br> variants and the ASS \N token) become <br>, and
// <i>, <b>, <u> pairs are restored. No other tag survives. Sanitizing
// already sanitized markup returns it unchanged.
func Sanitize(raw string) string {
	s := ampersandRe.ReplaceAllStringFunc(raw, func(m string) string {
		if len(m) > 1 {
			return m
		}
		return "&amp;"
	})
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")

	s = escapedBreakRe.ReplaceAllString(s, LineBreak)
	s = bracedBreakRe.ReplaceAllString(s, LineBreak)
	s = strings.ReplaceAll(s, `\N`, LineBreak)
	s = escapedStyleRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := escapedStyleRe.FindStringSubmatch(m)
		return "<" + sub[1] + strings.ToLower(sub[2]) + ">"
	})
	return s
}
