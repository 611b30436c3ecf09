// Package textdiff canonicalizes clinical note text and computes lexical
// deltas between revisions: zero-width/whitespace normalization,
// longest-common-subsequence changed-span extraction, and character-trigram
// Dice similarity.
package textdiff

import "strings"

var zeroWidth = strings.NewReplacer(
	"​", "",
	"‌", "",
	"‍", "",
	"﻿", "",
)

// Normalize canonicalizes text: strips zero-width characters, unifies line
// endings to LF, lower-cases, collapses each line's internal whitespace to
// single spaces, trims each line, and drops empty lines.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	cleaned := zeroWidth.Replace(text)
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")
	cleaned = strings.ReplaceAll(cleaned, "\r", "\n")
	lowered := strings.ToLower(cleaned)

	lines := strings.Split(lowered, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		collapsed := collapseWhitespace(line)
		collapsed = strings.TrimSpace(collapsed)
		if collapsed != "" {
			kept = append(kept, collapsed)
		}
	}
	return strings.Join(kept, "\n")
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range s {
		if isSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

// HasBoundary reports whether text ends with a sentence boundary: a
// trailing newline, or (after right-trimming) a trailing '.', '?', or '!'.
func HasBoundary(text string) bool {
	if text == "" {
		return false
	}
	if strings.HasSuffix(text, "\n") {
		return true
	}
	stripped := strings.TrimRight(text, " \t\r\n")
	if stripped == "" {
		return false
	}
	last := stripped[len(stripped)-1]
	return last == '.' || last == '?' || last == '!'
}
