package ats

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"atscore/internal/types"
)

// NormalizeResume flattens a resume into one lowercase blob for keyword
// matching. Missing fields contribute empty strings; no entry is skipped
// because of partial data. The output is only scanned with regexes and
// substring checks, it is never tokenized into a structure.
func NormalizeResume(resume *types.ResumeDocument) string {
	var b strings.Builder

	write := func(parts ...string) {
		for _, p := range parts {
			if p == "" {
				continue
			}
			b.WriteString(p)
			b.WriteByte(' ')
		}
	}

	write(resume.Summary, resume.TargetTitle)

	for _, exp := range resume.Experience {
		write(exp.Position, exp.Company, exp.Description)
		write(exp.Achievements...)
	}
	for _, edu := range resume.Education {
		write(edu.Degree, edu.Field, edu.Institution, edu.Description)
	}
	for _, cert := range resume.Certifications {
		write(cert.Name, cert.Issuer)
	}
	for _, proj := range resume.Projects {
		write(proj.Name, proj.Description)
		write(proj.Technologies...)
	}
	write(resume.Skills.All()...)

	return strings.ToLower(b.String())
}

// StripHTML reduces an HTML job description to its visible text. Plain-text
// input passes through unchanged.
func StripHTML(text string) string {
	if !strings.Contains(text, "<") || !strings.Contains(text, ">") {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	doc.Find("script, style").Remove()
	stripped := strings.TrimSpace(doc.Text())
	if stripped == "" {
		return text
	}
	return stripped
}
