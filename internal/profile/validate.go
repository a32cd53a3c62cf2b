package profile

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Violation names one failed constraint.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries every violated constraint, not just the first.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Reason))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Validate checks the profile and job description against the input
// constraints. maxJobDescription bounds the job description length in
// characters. Pure function: no network or filesystem access.
func Validate(p CandidateProfile, jobDescription string, maxJobDescription int) error {
	var violations []Violation

	if strings.TrimSpace(p.PersonalInfo.Name) == "" {
		violations = append(violations, Violation{Field: "personal_info.name", Reason: "must not be empty"})
	}
	if len(p.PersonalInfo.ContactMethods()) == 0 {
		violations = append(violations, Violation{Field: "personal_info", Reason: "at least one contact method is required"})
	}

	jd := strings.TrimSpace(jobDescription)
	if jd == "" {
		violations = append(violations, Violation{Field: "job_description", Reason: "must not be empty"})
	} else if maxJobDescription > 0 && utf8.RuneCountInString(jobDescription) > maxJobDescription {
		violations = append(violations, Violation{
			Field:  "job_description",
			Reason: fmt.Sprintf("exceeds maximum length of %d characters", maxJobDescription),
		})
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
