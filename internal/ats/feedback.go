package ats

import (
	"fmt"
	"strings"

	"atscore/internal/types"
)

// maxSuggestions caps the suggestion list on every result.
const maxSuggestions = 8

// feedbackBand returns the narrative for one category by score band.
func feedbackBand(score int, excellent, good, fair, poor string) string {
	switch {
	case score >= 90:
		return excellent
	case score >= 70:
		return good
	case score >= 50:
		return fair
	default:
		return poor
	}
}

func feedbackPriority(score int) string {
	switch {
	case score < 50:
		return "high"
	case score < 70:
		return "medium"
	default:
		return "low"
	}
}

// buildCategoryFeedback produces the ordered per-category narrative.
func buildCategoryFeedback(scores SubScores) []types.CategoryFeedback {
	entries := []struct {
		category                     string
		score                        int
		excellent, good, fair, poor string
	}{
		{
			"keywordMatch", scores.KeywordMatch,
			"Excellent keyword coverage. Your resume speaks the language of this job posting.",
			"Good keyword coverage. A few more role-specific terms would strengthen the match.",
			"Moderate keyword coverage. Work the job posting's key terms into your experience and skills.",
			"Low keyword coverage. ATS filters will likely screen this resume out for this role.",
		},
		{
			"formatting", scores.Formatting,
			"Your resume structure is fully ATS-parseable.",
			"Solid structure with minor gaps an ATS parser may stumble on.",
			"Several structural gaps reduce how reliably an ATS can parse this resume.",
			"Major structural problems. Add the missing contact details and core sections.",
		},
		{
			"completeness", scores.Completeness,
			"All key sections are filled in with substantive content.",
			"Mostly complete. Filling the remaining gaps would improve your score.",
			"Noticeably incomplete. Flesh out the thin or missing sections.",
			"Largely incomplete. Most major sections need content before this resume is competitive.",
		},
		{
			"experienceRelevance", scores.ExperienceRelevance,
			"Your work history aligns strongly with the target role.",
			"Good alignment between your experience and the target role.",
			"Partial alignment. Reframe past roles to emphasize transferable responsibilities.",
			"Your experience reads as unrelated to the target role. Highlight transferable work explicitly.",
		},
		{
			"skillsMatch", scores.SkillsMatch,
			"Your skills section covers the job's requirements well.",
			"Good skills coverage with room to add a few required skills.",
			"Your skills only partially overlap the job requirements.",
			"Your skills section misses most of the job's required skills.",
		},
		{
			"contentQuality", scores.ContentQuality,
			"Strong, specific, well-quantified content throughout.",
			"Good content. More measurable results would make it stronger.",
			"Content is thin or repetitive in places. Expand and differentiate your bullet points.",
			"Content needs substantial work: expand descriptions and remove repetition.",
		},
	}

	feedback := make([]types.CategoryFeedback, 0, len(entries))
	for _, e := range entries {
		feedback = append(feedback, types.CategoryFeedback{
			Category: e.category,
			Score:    e.score,
			Feedback: feedbackBand(e.score, e.excellent, e.good, e.fair, e.poor),
			Priority: feedbackPriority(e.score),
		})
	}
	return feedback
}

// suggestionInput carries everything the suggestion generator looks at.
type suggestionInput struct {
	resume          *types.ResumeDocument
	analysis        *types.KeywordAnalysis
	scores          SubScores
	dupExperiences  int
	dupAchievements int
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}

// buildSuggestions generates remediation suggestions in a fixed order:
// duplicates, skills, keywords, content quality, completeness, experience,
// formatting, then generic filler. Deduplicated, capped at maxSuggestions.
func buildSuggestions(in suggestionInput) []string {
	var suggestions []string

	if in.dupExperiences > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Remove %d duplicate work experience %s.",
			in.dupExperiences, plural(in.dupExperiences, "entry", "entries")))
	}
	if in.dupAchievements > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Remove or rewrite %d duplicated achievement %s.",
			in.dupAchievements, plural(in.dupAchievements, "bullet", "bullets")))
	}

	missingSkills := missingJobSkills(in.analysis)
	if len(missingSkills) > 5 {
		suggestions = append(suggestions,
			"Add a skills section covering the skills this job requires.")
	} else if len(missingSkills) > 0 {
		suggestions = append(suggestions,
			"Add more of the skills this job asks for to your skills section.")
	}

	if in.scores.SkillsMatch < 70 {
		named := topMissing(in.analysis.Categories.TechnicalSkills.Missing,
			in.analysis.Categories.Tools.Missing, 3)
		if len(named) > 0 {
			suggestions = append(suggestions, fmt.Sprintf(
				"Consider adding these key skills: %s.", strings.Join(named, ", ")))
		}
	}

	if len(in.analysis.Missing) > 0 {
		named := in.analysis.Missing
		if len(named) > 5 {
			named = named[:5]
		}
		suggestions = append(suggestions, fmt.Sprintf(
			"Incorporate these missing keywords where they genuinely apply: %s.",
			strings.Join(named, ", ")))
	}
	for _, name := range types.CategoryNames {
		bucket := in.analysis.Categories.Get(name)
		if len(bucket.All) == 0 {
			continue
		}
		missingFraction := float64(len(bucket.Missing)) / float64(len(bucket.All))
		if missingFraction >= 0.7 {
			suggestions = append(suggestions, fmt.Sprintf(
				"Strengthen your coverage of %s mentioned in the job description.",
				categoryLabel(name)))
		}
	}

	if len(in.resume.Experience) > 0 && !hasQuantifiedAchievement(in.resume.Experience) {
		suggestions = append(suggestions,
			"Quantify your achievements with numbers, percentages, or timeframes.")
	}

	if in.scores.Completeness < 70 {
		suggestions = append(suggestions,
			"Fill in the incomplete sections of your resume, especially summary and work history details.")
	}
	if in.scores.ExperienceRelevance < 60 {
		suggestions = append(suggestions,
			"Reframe your work experience to emphasize responsibilities relevant to the target role.")
	}
	if in.scores.Formatting < 80 {
		suggestions = append(suggestions,
			"Complete your contact information and use consistent date ranges for every position.")
	}

	if len(suggestions) < 6 {
		suggestions = append(suggestions,
			"Tailor your resume wording to each job description you apply to.",
			"Lead achievement bullets with strong action verbs.")
	}

	return dedupeAndCap(suggestions, maxSuggestions)
}

// categoryLabel renders a category name for prose.
var categoryLabels = map[string]string{
	"technicalSkills":  "technical skills",
	"softSkills":       "soft skills",
	"education":        "education requirements",
	"responsibilities": "responsibilities",
	"industryTerms":    "industry terms",
	"tools":            "tools",
	"certifications":   "certifications",
	"general":          "key terms",
}

func categoryLabel(name string) string {
	if label, ok := categoryLabels[name]; ok {
		return label
	}
	return name
}

// missingJobSkills collects the unmatched skill-type keywords.
func missingJobSkills(analysis *types.KeywordAnalysis) []string {
	var missing []string
	missing = append(missing, analysis.Categories.TechnicalSkills.Missing...)
	missing = append(missing, analysis.Categories.SoftSkills.Missing...)
	missing = append(missing, analysis.Categories.Tools.Missing...)
	return missing
}

// topMissing merges two missing lists and returns at most limit entries.
func topMissing(primary, secondary []string, limit int) []string {
	merged := make([]string, 0, limit)
	for _, list := range [][]string{primary, secondary} {
		for _, kw := range list {
			if len(merged) >= limit {
				return merged
			}
			merged = append(merged, kw)
		}
	}
	return merged
}

// dedupeAndCap removes repeated suggestions preserving the order generated
// and truncates the list to the cap.
func dedupeAndCap(suggestions []string, limit int) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, limit)
	for _, s := range suggestions {
		if seen[s] {
			continue
		}
		seen[s] = true
		result = append(result, s)
		if len(result) >= limit {
			break
		}
	}
	return result
}
