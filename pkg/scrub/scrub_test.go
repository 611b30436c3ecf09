package scrub

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var tokenShape = regexp.MustCompile(`^\[[A-Z]+:[0-9a-f]{10}\]$`)

func TestScrubRedactsEmail(t *testing.T) {
	s := New(ModeMinimum)
	out := s.Scrub("Contact patient at jane.doe@example.com for follow-up.")
	assert.NotContains(t, out, "jane.doe@example.com")
	assert.Contains(t, out, "[EMAIL:")
}

func TestScrubRedactsPhone(t *testing.T) {
	s := New(ModeMinimum)
	out := s.Scrub("Call back at 555-123-4567 tomorrow.")
	assert.NotContains(t, out, "555-123-4567")
	match := regexp.MustCompile(`\[PHONE:[0-9a-f]{10}\]`).FindString(out)
	assert.True(t, tokenShape.MatchString(match), "token should match [TAG:hex10] shape, got %q", match)
}

func TestScrubModeOffPassesThrough(t *testing.T) {
	s := New(ModeOff)
	text := "Contact jane.doe@example.com"
	assert.Equal(t, text, s.Scrub(text))
}

func TestScrubIdempotent(t *testing.T) {
	s := New(ModeMinimum)
	once := s.Scrub("Reach jane.doe@example.com or 555-123-4567.")
	twice := s.Scrub(once)
	assert.Equal(t, once, twice)
}

func TestScrubNilScrubberPassesThrough(t *testing.T) {
	var s *Scrubber
	text := "raw text"
	assert.Equal(t, text, s.Scrub(text))
}

func TestScrubEmptyInput(t *testing.T) {
	s := New(ModeMinimum)
	assert.Equal(t, "", s.Scrub(""))
}
