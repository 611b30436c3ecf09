// Package validator defines the capability the compose pipeline's final
// review stage uses to check a beautified note (and its codes, prevention
// items, diagnoses, differentials and compliance checks) against domain
// rules before it is allowed to finalize.
package validator

// Issue is one validation finding.
type Issue struct {
	Field    string
	Message  string
	Severity string
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Outcome is what a Validator returns: whether the note can finalize, the
// issues found, and any additional collaborator-specific detail. The
// pipeline treats Detail as opaque and carries it through unexamined.
type Outcome struct {
	CanFinalize bool
	Issues      []Issue
	Detail      map[string]any
}

// Validator checks a structured final-review payload
// ({content, codes, prevention, diagnoses, differentials, compliance}) and
// reports whether the note can finalize.
type Validator interface {
	Validate(payload map[string]any) Outcome
}

// RequiredFieldsValidator rejects a payload missing any of its required
// top-level keys; any such miss blocks finalization.
type RequiredFieldsValidator struct {
	Required []string
}

// Validate implements Validator.
func (v RequiredFieldsValidator) Validate(payload map[string]any) Outcome {
	var issues []Issue
	for _, field := range v.Required {
		if _, ok := payload[field]; !ok {
			issues = append(issues, Issue{
				Field:    field,
				Message:  "required field is missing",
				Severity: SeverityError,
			})
		}
	}
	return Outcome{CanFinalize: !hasError(issues), Issues: issues, Detail: payload}
}

func hasError(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
