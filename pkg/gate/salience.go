package gate

import "regexp"

var (
	vitalsPattern = regexp.MustCompile(`(?i)(bp\s*\d{2,3}/\d{2,3}|hr\s*\d{2,3}|spo2\s*\d{2,3}%)`)
	labsPattern   = regexp.MustCompile(`(?i)\b(na|k|cr|hba1c|hgb|wbc)\b\s*(\d+(?:\.\d+)?(?:\s*(?:mmol/l|mg/dl|g/dl|%))?)`)
	medsPattern   = regexp.MustCompile(`(?i)[a-z]+(?:\s+[a-z]+)?\s+\d+\s*(?:mg|mcg|u)\s+(?:bid|tid|qhs|qam|prn)`)
	procedurePattern  = regexp.MustCompile(`(?i)\b(ekg|cxr|mri|colonoscopy|ct)\b`)
	diagnosticPattern = regexp.MustCompile(`(?i)(pneumonia|nstemi|r/o\s+pe)`)
	negationPattern   = regexp.MustCompile(`(?i)\bdenies\b`)
	positivePattern   = regexp.MustCompile(`(?i)\b(reports|endorses|admits|has|experiencing)\b`)
)

// hasSalience reports whether a change between oldSpan and newSpan crosses
// a clinically-important threshold: a vitals/labs/medication/procedure/
// diagnostic pattern match in either span, a disappearing negation
// ("denies" in old but not new), or a newly appearing positive phrase not
// accompanied by negation in either span.
func hasSalience(oldSpan, newSpan string) bool {
	combined := newSpan
	if oldSpan != "" || newSpan != "" {
		combined = oldSpan + " " + newSpan
	}
	if combined == "" {
		return false
	}

	switch {
	case vitalsPattern.MatchString(combined),
		labsPattern.MatchString(combined),
		medsPattern.MatchString(combined),
		procedurePattern.MatchString(combined),
		diagnosticPattern.MatchString(combined):
		return true
	}

	oldHasNegation := negationPattern.MatchString(oldSpan)
	newHasNegation := negationPattern.MatchString(newSpan)
	newHasPositive := positivePattern.MatchString(newSpan)

	if oldHasNegation && !newHasNegation {
		return true
	}
	if newHasPositive && !newHasNegation && !oldHasNegation {
		return true
	}
	return false
}
