package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredFieldsValidatorFlagsMissing(t *testing.T) {
	v := RequiredFieldsValidator{Required: []string{"codes", "compliance"}}
	outcome := v.Validate(map[string]any{"codes": []string{}})
	assert.False(t, outcome.CanFinalize)
	assert.Len(t, outcome.Issues, 1)
	assert.Equal(t, "compliance", outcome.Issues[0].Field)
	assert.Equal(t, SeverityError, outcome.Issues[0].Severity)
}

func TestRequiredFieldsValidatorPasses(t *testing.T) {
	v := RequiredFieldsValidator{Required: []string{"codes"}}
	outcome := v.Validate(map[string]any{"codes": []string{}})
	assert.True(t, outcome.CanFinalize)
	assert.Empty(t, outcome.Issues)
}
