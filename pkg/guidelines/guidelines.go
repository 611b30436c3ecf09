// Package guidelines resolves age/sex/region-appropriate preventive care
// tips for inclusion in the dynamic prompt block.
package guidelines

import "strings"

// Source resolves care guideline tips for a patient profile, matching the
// capability pkg/prompt.GuidelineLookup expects.
type Source interface {
	Guidelines(age int, sex, region string) (vaccinations, screenings, recommendations []string)
}

// rule is one age/sex/region-gated guideline entry.
type rule struct {
	minAge, maxAge int
	sex            string // "", "male", or "female"; "" matches any
	region         string // "", or a specific region code; "" matches any
	tip            string
	kind           string // "vaccination", "screening", or "recommendation"
}

// StaticSource serves a small built-in table of preventive care rules. It
// is meant as a default/offline source; a production deployment would
// swap in a Source backed by a guidelines service.
type StaticSource struct {
	rules []rule
}

// NewStaticSource constructs a StaticSource with the built-in rule table.
func NewStaticSource() *StaticSource {
	return &StaticSource{rules: defaultRules}
}

var defaultRules = []rule{
	{minAge: 0, maxAge: 200, sex: "", region: "", tip: "Annual influenza vaccination", kind: "vaccination"},
	{minAge: 50, maxAge: 200, sex: "", region: "", tip: "Colorectal cancer screening", kind: "screening"},
	{minAge: 40, maxAge: 200, sex: "female", region: "", tip: "Mammography screening", kind: "screening"},
	{minAge: 65, maxAge: 200, sex: "", region: "", tip: "Pneumococcal vaccination", kind: "vaccination"},
	{minAge: 18, maxAge: 200, sex: "", region: "", tip: "Blood pressure check at every visit", kind: "recommendation"},
	{minAge: 45, maxAge: 200, sex: "", region: "", tip: "Type 2 diabetes screening", kind: "screening"},
}

// Guidelines implements Source by filtering the built-in rule table against
// age, sex and region (an empty rule field matches any value).
func (s *StaticSource) Guidelines(age int, sex, region string) (vaccinations, screenings, recommendations []string) {
	sexLower := strings.ToLower(strings.TrimSpace(sex))
	regionLower := strings.ToLower(strings.TrimSpace(region))

	for _, r := range s.rules {
		if age < r.minAge || age > r.maxAge {
			continue
		}
		if r.sex != "" && r.sex != sexLower {
			continue
		}
		if r.region != "" && r.region != regionLower {
			continue
		}
		switch r.kind {
		case "vaccination":
			vaccinations = append(vaccinations, r.tip)
		case "screening":
			screenings = append(screenings, r.tip)
		case "recommendation":
			recommendations = append(recommendations, r.tip)
		}
	}
	return vaccinations, screenings, recommendations
}
