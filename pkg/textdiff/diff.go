package textdiff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// InsertRange is a half-open [Start, End) rune range in the new text that an
// "insert" opcode introduced.
type InsertRange struct {
	Start, End int
}

// ChangedSpans computes the longest-common-subsequence diff between old and
// new (character granularity) and returns the concatenated old-side and
// new-side changed spans plus the insert ranges. Per-opcode pieces are
// trimmed and joined with LF; opcodes contributing only whitespace are
// dropped. When old == new, returns ("", "", nil).
func ChangedSpans(old, new string) (oldSpan, newSpan string, inserts []InsertRange) {
	if old == new {
		return "", "", nil
	}

	oldRunes := splitRunes(old)
	newRunes := splitRunes(new)

	matcher := difflib.NewMatcher(oldRunes, newRunes)
	opcodes := matcher.GetOpCodes()

	var oldParts, newParts []string
	for _, op := range opcodes {
		if op.Tag == 'r' || op.Tag == 'd' {
			if piece := strings.TrimSpace(joinRunes(oldRunes[op.I1:op.I2])); piece != "" {
				oldParts = append(oldParts, piece)
			}
		}
		if op.Tag == 'r' || op.Tag == 'i' {
			if piece := strings.TrimSpace(joinRunes(newRunes[op.J1:op.J2])); piece != "" {
				newParts = append(newParts, piece)
			}
		}
		if op.Tag == 'i' {
			inserts = append(inserts, InsertRange{Start: op.J1, End: op.J2})
		}
	}

	return strings.Join(oldParts, "\n"), strings.Join(newParts, "\n"), inserts
}

func splitRunes(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

func joinRunes(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
	}
	return b.String()
}
