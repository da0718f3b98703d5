package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Trim removes leading and trailing whitespace. Everything in between is
// kept exactly as written, markup-looking text included.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// TrimPtr returns a trimmed copy of *s. A nil pointer stays nil.
func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := Trim(*s)
	return &t
}

// TrimList trims every entry and drops the ones that end up empty. Order and
// repeated entries are kept. The result is never nil.
func TrimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := Trim(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// strict strips every tag and attribute. The policy is read-only after
// construction, so never call AddAttr, AllowElements or similar on it.
var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// Preview renders s as one plain-text line of at most n runes for
// notification channels. Stored text is never passed through it.
//
//	"<p>Grace <b>alone</b></p>\n\nby faith" -> "Grace alone by faith"
func Preview(s string, n int) string {
	out := html.UnescapeString(strict.Sanitize(s))
	out = strings.Join(strings.Fields(out), " ")
	if n <= 0 {
		return out
	}
	if r := []rune(out); len(r) > n {
		return strings.TrimSpace(string(r[:n-1])) + "…"
	}
	return out
}
