package prompt

import (
	"fmt"
	"strings"
)

// CodedItem is a billing/diagnosis code entry carried in disposition or
// PMH context.
type CodedItem struct {
	Code        string
	Description string
	Rationale   string
}

// Attachments reports which optional attachment kinds were supplied, so the
// dynamic block can note their presence without embedding raw content.
type Attachments struct {
	ChartChars int
	AudioChars int
	FileChars  int
}

// Disposition summarizes which suggested codes the clinician accepted or
// denied.
type Disposition struct {
	Accepted []CodedItem
	Denied   []CodedItem
}

// DynamicContext carries every per-call input to BuildDynamicBlock. All
// free-text fields are expected to already be scrubbed by the caller, except
// RawNote/RawPrevious/RawTranscript/DiffNewSpan which BuildDynamicBlock
// scrubs itself.
type DynamicContext struct {
	RawNote        string
	RawPrevious    string
	RawTranscript  string
	DiffOldSpan    string
	DiffNewSpan    string
	NoteID         string
	EncounterID    string
	SessionID      string
	TranscriptCur  string
	Disposition    *Disposition
	Attachments    *Attachments
	Accepted       map[string]any
	PMH            []CodedItem
	Rules          []string
	Age            int
	Sex            string
	Region         string
	GuidelineLooks GuidelineLookup
}

// GuidelineLookup resolves care guideline tips for a patient profile.
type GuidelineLookup interface {
	Guidelines(age int, sex, region string) (vaccinations, screenings, recommendations []string)
}

func splitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := splitOnBoundary(text)
	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}

// splitOnBoundary splits text after '.', '!' or '?' followed by whitespace.
// Go's RE2 does not support lookbehind, so this walks the string directly.
func splitOnBoundary(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '.' || r == '!' || r == '?' {
			j := i + 1
			if j < len(runes) && isSpaceRune(runes[j]) {
				sentences = append(sentences, string(runes[start:j]))
				for j < len(runes) && isSpaceRune(runes[j]) {
					j++
				}
				start = j
				i = j - 1
			}
		}
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func isSpaceRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

// collectDiffSentences returns up to maxSentences sentences from text, built
// from newSpans (the diff's new-side text only). For each span, the first
// sentence containing it (case-insensitive substring match) anchors a
// window of neighboring sentences; windows are collected in span order and
// then deduped, keeping the first occurrence of each index. When no span
// matches, it falls back to the first maxSentences sentences.
func collectDiffSentences(text string, newSpans []string, window, maxSentences int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var indexes []int
	for _, span := range newSpans {
		span = strings.TrimSpace(span)
		if span == "" {
			continue
		}
		lowerSpan := strings.ToLower(span)
		matchIndex := -1
		for i, sentence := range sentences {
			if strings.Contains(strings.ToLower(sentence), lowerSpan) {
				matchIndex = i
				break
			}
		}
		if matchIndex == -1 {
			continue
		}
		start := matchIndex - window
		if start < 0 {
			start = 0
		}
		end := matchIndex + window + 1
		if end > len(sentences) {
			end = len(sentences)
		}
		for idx := start; idx < end; idx++ {
			indexes = append(indexes, idx)
		}
	}

	if len(indexes) == 0 {
		limit := maxSentences
		if limit > len(sentences) {
			limit = len(sentences)
		}
		for i := 0; i < limit; i++ {
			indexes = append(indexes, i)
		}
	}

	seen := make(map[int]bool)
	var ordered []int
	for _, idx := range indexes {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		ordered = append(ordered, idx)
		if len(ordered) >= maxSentences {
			break
		}
	}

	out := make([]string, 0, len(ordered))
	for _, idx := range ordered {
		if s := strings.TrimSpace(sentences[idx]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func formatDispositionItems(items []CodedItem, limit int) []string {
	out := make([]string, 0, limit)
	for _, item := range items {
		if len(out) >= limit {
			break
		}
		var label string
		switch {
		case item.Code != "" && item.Description != "":
			label = item.Code + " — " + item.Description
		case item.Code != "":
			label = item.Code
		case item.Description != "":
			label = item.Description
		default:
			continue
		}
		if item.Rationale != "" {
			label += " (" + item.Rationale + ")"
		}
		out = append(out, label)
	}
	return out
}

func summarizeDisposition(d *Disposition) string {
	if d == nil {
		return ""
	}
	var parts []string
	if accepted := formatDispositionItems(d.Accepted, 4); len(accepted) > 0 {
		parts = append(parts, "Accepted: "+strings.Join(accepted, "; "))
	}
	if denied := formatDispositionItems(d.Denied, 4); len(denied) > 0 {
		parts = append(parts, "Denied: "+strings.Join(denied, "; "))
	}
	return strings.Join(parts, "; ")
}

func summarizeAttachments(a *Attachments) string {
	if a == nil {
		return ""
	}
	return strings.Join([]string{
		attachmentState("chart", a.ChartChars),
		attachmentState("audio", a.AudioChars),
		attachmentState("files", a.FileChars),
	}, ", ")
}

func attachmentState(key string, chars int) string {
	if chars > 0 {
		return fmt.Sprintf("%s=present (%d chars)", key, chars)
	}
	return key + "=absent"
}

func formatPMHEntries(entries []CodedItem, limit int) []string {
	out := make([]string, 0, limit)
	for _, e := range entries {
		if len(out) >= limit {
			break
		}
		label := e.Description
		if label == "" {
			label = e.Code
		}
		if label == "" {
			continue
		}
		if e.Code != "" && e.Description != "" {
			label = e.Code + " — " + e.Description
		}
		out = append(out, label)
	}
	return out
}

// BuildDynamicBlock assembles the per-call dynamic prompt message. RawNote,
// RawPrevious, RawTranscript and DiffNewSpan are scrubbed for PHI before
// inclusion; Rules, TranscriptCur, Disposition and PMH are not scrubbed here
// and are included as given.
func (b *Builder) BuildDynamicBlock(ctx DynamicContext) Message {
	var sections []string

	sanitizedNote := b.scrub(ctx.RawNote)
	sanitizedPrevious := b.scrub(ctx.RawPrevious)
	sanitizedTranscript := b.scrub(ctx.RawTranscript)
	newSpan := b.scrub(ctx.DiffNewSpan)

	var diffSentences []string
	if lowerSpan := strings.ToLower(newSpan); lowerSpan != "" {
		for _, sentence := range splitSentences(sanitizedNote) {
			if strings.Contains(strings.ToLower(sentence), lowerSpan) {
				diffSentences = collectDiffSentences(sanitizedNote, []string{newSpan}, 1, 8)
				break
			}
		}
	}
	if len(diffSentences) > 0 {
		sections = append(sections, "Changed note snippets (±1 sentence):\n"+strings.Join(diffSentences, " "))
	} else if sanitizedNote != "" {
		fallback := collectDiffSentences(sanitizedNote, nil, 0, 5)
		if len(fallback) > 0 {
			sections = append(sections, "Key note sentences:\n"+strings.Join(fallback, " "))
		}
	}

	stateParts := []string{}
	if ctx.NoteID != "" {
		stateParts = append(stateParts, "noteId="+ctx.NoteID)
	}
	if ctx.EncounterID != "" {
		stateParts = append(stateParts, "encounterId="+ctx.EncounterID)
	}
	if ctx.SessionID != "" {
		stateParts = append(stateParts, "sessionId="+ctx.SessionID)
	}
	if sanitizedNote != "" {
		stateParts = append(stateParts, "noteHash="+shortHash(sanitizedNote))
	}
	if sanitizedPrevious != "" {
		stateParts = append(stateParts, "previousHash="+shortHash(sanitizedPrevious))
	}
	if ctx.TranscriptCur != "" {
		stateParts = append(stateParts, "cursor="+ctx.TranscriptCur)
	}
	if ctx.Accepted != nil {
		stateParts = append(stateParts, "acceptedHash="+hashJSON(ctx.Accepted))
	}
	if len(stateParts) > 0 {
		sections = append(sections, "State summary: "+strings.Join(stateParts, ", "))
	}

	if attachments := summarizeAttachments(ctx.Attachments); attachments != "" {
		sections = append(sections, "Attachments: "+attachments)
	}

	if len(ctx.Rules) > 0 {
		sections = append(sections, "User rules:\n"+strings.Join(ctx.Rules, "\n"))
	}

	if disposition := summarizeDisposition(ctx.Disposition); disposition != "" {
		sections = append(sections, "Suggestion disposition: "+disposition)
	}

	if sanitizedTranscript != "" {
		snippet := sanitizedTranscript
		runes := []rune(snippet)
		if len(runes) > 240 {
			snippet = string(runes[:240]) + "…"
		}
		sections = append(sections, "Transcript snippet: "+snippet)
	}

	if pmh := formatPMHEntries(ctx.PMH, 3); len(pmh) > 0 {
		sections = append(sections, "PMH highlights:\n"+strings.Join(pmh, "\n"))
	}

	if guideline := formatGuidelines(ctx); guideline != "" {
		sections = append(sections, "Care guidelines to consider: "+guideline)
	}

	// A previous note always puts previousHash into the state summary, so a
	// single section here means the state summary is the only one.
	switch {
	case sanitizedPrevious != "" && len(sections) == 1:
		runes := []rune(sanitizedPrevious)
		if len(runes) > 200 {
			runes = runes[:200]
		}
		sections = append(sections, "Previous note reference: "+strings.TrimRight(string(runes), " \t\r\n"))
	case len(sections) == 0:
		sections = append(sections, "No recent changes supplied; use clinician instructions and defaults.")
	}

	return Message{Role: "user", Content: strings.Join(sections, "\n\n")}
}

func formatGuidelines(ctx DynamicContext) string {
	if ctx.GuidelineLooks == nil || ctx.Age <= 0 || ctx.Sex == "" || ctx.Region == "" {
		return ""
	}
	vaccinations, screenings, recommendations := ctx.GuidelineLooks.Guidelines(ctx.Age, ctx.Sex, ctx.Region)

	seen := make(map[string]bool)
	var tips []string
	for _, group := range [][]string{vaccinations, screenings, recommendations} {
		for _, tip := range group {
			tip = strings.TrimSpace(tip)
			if tip == "" || seen[tip] {
				continue
			}
			seen[tip] = true
			tips = append(tips, tip)
			if len(tips) >= 5 {
				return strings.Join(tips, ", ")
			}
		}
	}
	return strings.Join(tips, ", ")
}

func (b *Builder) scrub(text string) string {
	collapsed := strings.TrimSpace(text)
	if collapsed == "" {
		return ""
	}
	if b.scrubber == nil {
		return collapsed
	}
	return strings.TrimSpace(b.scrubber.Scrub(collapsed))
}
