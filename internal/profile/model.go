package profile

import "strings"

// CandidateProfile is the caller-supplied resume data. Fields are free text;
// validation only checks presence and length, never semantics.
type CandidateProfile struct {
	PersonalInfo   PersonalInfo     `json:"personal_info"`
	Summary        string           `json:"summary,omitempty"`
	Skills         []string         `json:"skills"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Education      []Education      `json:"education"`
	Projects       []Project        `json:"projects,omitempty"`
	Certifications []string         `json:"certifications,omitempty"`
	Languages      []string         `json:"languages,omitempty"`
}

// PersonalInfo holds the candidate's identity and contact fields.
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

// ContactMethods returns the non-empty contact fields in declaration order.
func (p PersonalInfo) ContactMethods() []string {
	var out []string
	for _, v := range []string{p.Email, p.Phone, p.LinkedIn, p.GitHub, p.Website} {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

// WorkExperience is one employment entry, newest first by convention.
type WorkExperience struct {
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date,omitempty"`
	Location    string   `json:"location,omitempty"`
	Description []string `json:"description"`
}

// Education is one education entry.
type Education struct {
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	Field          string `json:"field,omitempty"`
	GraduationDate string `json:"graduation_date,omitempty"`
	GPA            string `json:"gpa,omitempty"`
	Location       string `json:"location,omitempty"`
}

// Project is one project entry.
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty"`
	Date         string   `json:"date,omitempty"`
}

// Recognized template styles. Unknown values fall back to StyleModern.
const (
	StyleModern       = "modern"
	StyleProfessional = "professional"
	StyleCreative     = "creative"
)

// NormalizeStyle maps a caller-supplied template style onto the recognized
// set, silently defaulting unknown values.
func NormalizeStyle(style string) string {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case StyleProfessional:
		return StyleProfessional
	case StyleCreative:
		return StyleCreative
	default:
		return StyleModern
	}
}
