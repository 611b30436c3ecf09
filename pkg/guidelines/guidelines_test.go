package guidelines

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuidelinesFiltersByAgeAndSex(t *testing.T) {
	s := NewStaticSource()

	vaccinations, screenings, _ := s.Guidelines(55, "female", "us")
	assert.Contains(t, vaccinations, "Annual influenza vaccination")
	assert.Contains(t, screenings, "Colorectal cancer screening")
	assert.Contains(t, screenings, "Mammography screening")
}

func TestGuidelinesExcludesOutOfRangeAge(t *testing.T) {
	s := NewStaticSource()
	_, screenings, _ := s.Guidelines(30, "female", "us")
	assert.NotContains(t, screenings, "Colorectal cancer screening")
	assert.NotContains(t, screenings, "Mammography screening")
}

func TestGuidelinesExcludesWrongSex(t *testing.T) {
	s := NewStaticSource()
	_, screenings, _ := s.Guidelines(55, "male", "us")
	assert.NotContains(t, screenings, "Mammography screening")
}
