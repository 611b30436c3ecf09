package compose

import (
	"fmt"
	"strings"
)

const noCodesJustification = "• No billing codes were selected during this workflow."

// buildCodeJustifications dedups codes by their lower-cased (code, title,
// or id) key, then renders one bullet per surviving entry: a descriptor
// ("code – title" when both are present and differ, the code alone, or a
// positional fallback), followed by an evidence-backed reason drawn from
// the first non-empty field in precedence order, or a generic fallback
// naming the patient.
func buildCodeJustifications(codes []CodeEntry, patientName string) []string {
	name := patientNameOrDefault(patientName)
	seen := make(map[string]bool)

	var out []string
	for i, c := range codes {
		key := strings.ToLower(firstNonEmpty(c.Code, c.Title, c.ID))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		descriptor := describeCode(c, i)
		reason := cleanSentence(normalizeWhitespace(reasonFor(c, name)))
		out = append(out, fmt.Sprintf("• %s: %s", descriptor, reason))
	}

	if len(out) == 0 {
		return []string{noCodesJustification}
	}
	return out
}

func describeCode(c CodeEntry, index int) string {
	switch {
	case c.Code != "" && c.Title != "" && c.Code != c.Title:
		return c.Code + " – " + c.Title
	case c.Code != "":
		return c.Code
	default:
		return fmt.Sprintf("Code %d", index+1)
	}
}

func reasonFor(c CodeEntry, patientName string) string {
	if reason := firstNonEmpty(c.DocSupport, c.Details, c.Description, c.AIReasoning); reason != "" {
		return reason
	}
	if len(c.Evidence) > 0 {
		return strings.Join(c.Evidence, "; ")
	}
	if len(c.Gaps) > 0 {
		return strings.Join(c.Gaps, "; ")
	}
	return fmt.Sprintf("Documented findings for %s support this selection.", patientName)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
