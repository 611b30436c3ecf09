package compose

import (
	"fmt"
	"strings"
	"time"
)

const defaultNoteTemplate = `CHIEF COMPLAINT:
Chest pain.

HISTORY OF PRESENT ILLNESS:
%s is a patient presenting on %s with acute onset chest pain. Denies shortness of breath,
nausea, or diaphoresis. Pain is described as intermittent and non-radiating.

REVIEW OF SYSTEMS:
Cardiovascular: Negative for palpitations or syncope.
Respiratory: Negative for cough or wheeze.

ASSESSMENT AND PLAN:
Chest pain, likely musculoskeletal in origin. Will obtain EKG and cardiac enzymes to rule out
acute coronary syndrome. Follow up in clinic within one week or sooner if symptoms worsen.`

// defaultNoteContent returns the canned chest-pain note used when a
// composition job supplies no note text, parameterized by patient name and
// the current date.
func defaultNoteContent(patientName string, now time.Time) string {
	if patientName == "" {
		patientName = "Patient"
	}
	return fmt.Sprintf(defaultNoteTemplate, patientName, now.Format("2006-01-02"))
}

func patientNameOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Patient"
	}
	return name
}

// buildPatientSummary renders the clinician-facing visit summary: header,
// a "what we discussed" section drawn from the note body, optional
// transcript highlights and billing rationale, and a fixed next-steps
// footer.
func buildPatientSummary(patientName, note string, highlights, justifications []string, now time.Time) string {
	name := patientNameOrDefault(patientName)

	var b strings.Builder
	fmt.Fprintf(&b, "VISIT SUMMARY FOR: %s\n", name)
	fmt.Fprintf(&b, "DATE: %s\n\n", now.Format("2006-01-02"))

	b.WriteString("WHAT WE DISCUSSED:\n")
	paragraphs := splitParagraphs(note)
	if len(paragraphs) > 6 {
		paragraphs = paragraphs[:6]
	}
	for _, p := range paragraphs {
		b.WriteString(normalizeWhitespace(p))
		b.WriteString("\n\n")
	}

	if len(highlights) > 0 {
		b.WriteString("CONVERSATION HIGHLIGHTS:\n")
		for _, h := range highlights {
			fmt.Fprintf(&b, "- %s\n", h)
		}
		b.WriteString("\n")
	}

	if len(justifications) > 0 {
		b.WriteString("BILLING CODES & REASONS:\n")
		for _, j := range justifications {
			fmt.Fprintf(&b, "%s\n", j)
		}
		b.WriteString("\n")
	}

	b.WriteString("NEXT STEPS:\n")
	b.WriteString("- Contact the clinic if symptoms worsen or new concerns arise.\n")
	b.WriteString("- Schedule any recommended follow-up appointments as discussed.\n")

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func splitParagraphs(note string) []string {
	blocks := strings.Split(strings.ReplaceAll(note, "\r\n", "\n"), "\n\n")
	var out []string
	for _, blk := range blocks {
		trimmed := strings.TrimSpace(blk)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// deriveTranscriptHighlights returns up to 3 "speaker: text" bullets from
// the transcript, in order.
func deriveTranscriptHighlights(transcript []TranscriptEntry) []string {
	var out []string
	for _, entry := range transcript {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		speaker := entry.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		out = append(out, speaker+": "+text)
		if len(out) == 3 {
			break
		}
	}
	return out
}
