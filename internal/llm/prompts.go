package llm

import (
	"fmt"
	"strings"
)

// Message is one chat message in provider-neutral form.
type Message struct {
	Role    string
	Content string
}

const systemPrompt = `You are an expert resume writer and LaTeX specialist. Your task is to generate a professional, ATS-optimized resume in LaTeX format using the moderncv class.

IMPORTANT REQUIREMENTS:
1. Return ONLY valid LaTeX code - no explanations, no markdown formatting
2. Use the moderncv document class with appropriate packages
3. Structure the content to be ATS-friendly with clear sections
4. Tailor the content to match the provided job description
5. Include all provided information without making up details
6. Optimize for both human readability and ATS parsing

The resume should include these sections in order:
- Personal Information (name, email, phone, location, LinkedIn, GitHub)
- Professional Summary (if provided)
- Skills (organized by category when possible)
- Work Experience (reverse chronological order)
- Education
- Projects (if provided)
- Certifications (if provided)
- Languages (if provided)`

// StrictSystemMessage is prepended on the single corrective retry after a
// response without a recognizable \documentclass declaration.
const StrictSystemMessage = `Your previous response was not a complete LaTeX document. Respond with nothing but a LaTeX document: the first line must be a \documentclass declaration and the last line must be \end{document}. No prose, no markdown fences.`

// BuildMessages assembles the provider-neutral prompt for one generation.
func BuildMessages(input GenerateInput, strict bool) []Message {
	msgs := make([]Message, 0, 3)
	if strict {
		msgs = append(msgs, Message{Role: "system", Content: StrictSystemMessage})
	}
	msgs = append(msgs,
		Message{Role: "system", Content: systemPrompt},
		Message{Role: "user", Content: buildUserPrompt(input)},
	)
	return msgs
}

func buildUserPrompt(input GenerateInput) string {
	return fmt.Sprintf(`Generate a professional resume in LaTeX format (moderncv class) using this information:

RESUME DATA:
%s

JOB DESCRIPTION TO TAILOR AGAINST:
%s

TEMPLATE STYLE: %s

Please create an ATS-optimized resume that:
1. Highlights relevant skills and experience for this specific job
2. Uses appropriate keywords from the job description
3. Maintains professional formatting
4. Is optimized for both ATS systems and human reviewers

Return only the complete LaTeX document code.`,
		formatProfile(input), input.JobDescription, input.TemplateStyle)
}

func formatProfile(input GenerateInput) string {
	p := input.Profile
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", p.PersonalInfo.Name)
	writeField(&b, "Email", p.PersonalInfo.Email)
	writeField(&b, "Phone", p.PersonalInfo.Phone)
	writeField(&b, "Location", p.PersonalInfo.Location)
	writeField(&b, "LinkedIn", p.PersonalInfo.LinkedIn)
	writeField(&b, "GitHub", p.PersonalInfo.GitHub)
	writeField(&b, "Website", p.PersonalInfo.Website)

	if strings.TrimSpace(p.Summary) != "" {
		fmt.Fprintf(&b, "\nSummary: %s\n", p.Summary)
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "\nSkills: %s\n", strings.Join(p.Skills, ", "))
	}

	if len(p.WorkExperience) > 0 {
		b.WriteString("\nWork Experience:\n")
		for _, exp := range p.WorkExperience {
			end := exp.EndDate
			if end == "" {
				end = "Present"
			}
			fmt.Fprintf(&b, "- %s at %s (%s - %s)\n", exp.Position, exp.Company, exp.StartDate, end)
			for _, line := range exp.Description {
				fmt.Fprintf(&b, "  * %s\n", line)
			}
		}
	}

	if len(p.Education) > 0 {
		b.WriteString("\nEducation:\n")
		for _, edu := range p.Education {
			entry := "- " + edu.Degree
			if edu.Field != "" {
				entry += " in " + edu.Field
			}
			entry += " from " + edu.Institution
			if edu.GraduationDate != "" {
				entry += " (" + edu.GraduationDate + ")"
			}
			b.WriteString(entry + "\n")
		}
	}

	if len(p.Projects) > 0 {
		b.WriteString("\nProjects:\n")
		for _, proj := range p.Projects {
			fmt.Fprintf(&b, "- %s: %s\n", proj.Name, proj.Description)
			if len(proj.Technologies) > 0 {
				fmt.Fprintf(&b, "  Technologies: %s\n", strings.Join(proj.Technologies, ", "))
			}
		}
	}

	if len(p.Certifications) > 0 {
		fmt.Fprintf(&b, "\nCertifications: %s\n", strings.Join(p.Certifications, ", "))
	}
	if len(p.Languages) > 0 {
		fmt.Fprintf(&b, "\nLanguages: %s\n", strings.Join(p.Languages, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}
