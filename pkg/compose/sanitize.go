package compose

import (
	"html"
	"regexp"
)

var htmlTag = regexp.MustCompile(`(?s)<[^>]*>`)

// sanitizeText strips HTML tags from value and unescapes any remaining
// entities, mirroring a strip-tags HTML sanitizer applied to the raw note
// before the analyzing stage's empty check.
func sanitizeText(value string) string {
	stripped := htmlTag.ReplaceAllString(value, "")
	return html.UnescapeString(stripped)
}
