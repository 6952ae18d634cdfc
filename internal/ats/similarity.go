package ats

import (
	"strings"

	"atscore/internal/types"
)

// duplicateExperienceThreshold and duplicateAchievementThreshold are the
// Jaccard cutoffs for duplicate-content detection.
const (
	duplicateExperienceThreshold  = 0.8
	duplicateAchievementThreshold = 0.85
	skillOverlapThreshold         = 0.8
)

// similarityTokens tokenizes text by whitespace, drops tokens of length 3
// or less, and lowercases the rest.
func similarityTokens(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if len(tok) > 3 {
			tokens[tok] = true
		}
	}
	return tokens
}

// Similarity computes the Jaccard index of the qualifying token sets of two
// text spans. Returns 0 when either side yields no qualifying tokens.
func Similarity(a, b string) float64 {
	setA := similarityTokens(a)
	setB := similarityTokens(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// normalizedTokenOverlap reports whether two short spans refer to the same
// thing: either one contains the other (case-insensitive) or their token
// similarity clears the threshold. Shared by skills matching and duplicate
// detection so the overlap semantics stay in one place.
func normalizedTokenOverlap(a, b string, threshold float64) bool {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return true
	}
	return Similarity(la, lb) >= threshold
}

// experienceText joins an entry's description and achievements for
// similarity comparison.
func experienceText(exp types.WorkExperience) string {
	parts := append([]string{exp.Description}, exp.Achievements...)
	return strings.Join(parts, " ")
}

// CountDuplicateExperiences counts entries that duplicate an earlier entry:
// same position and company, or description/achievement similarity above
// the threshold. Each entry is compared against the ones before it.
func CountDuplicateExperiences(experiences []types.WorkExperience) int {
	duplicates := 0
	for i, exp := range experiences {
		for j := 0; j < i; j++ {
			prev := experiences[j]
			samePosting := exp.Position != "" && exp.Company != "" &&
				strings.EqualFold(exp.Position, prev.Position) &&
				strings.EqualFold(exp.Company, prev.Company)
			if samePosting || Similarity(experienceText(exp), experienceText(prev)) > duplicateExperienceThreshold {
				duplicates++
				break
			}
		}
	}
	return duplicates
}

// CountDuplicateAchievements counts achievement bullets that duplicate a
// previously seen bullet anywhere in the resume. The scan is sequential
// with a first-match short-circuit, so the count depends on bullet order;
// that matches the established scoring behavior and is kept as is.
func CountDuplicateAchievements(experiences []types.WorkExperience) int {
	var seen []string
	duplicates := 0
	for _, exp := range experiences {
		for _, achievement := range exp.Achievements {
			isDuplicate := false
			for _, prev := range seen {
				if Similarity(achievement, prev) > duplicateAchievementThreshold {
					isDuplicate = true
					break
				}
			}
			if isDuplicate {
				duplicates++
			}
			seen = append(seen, achievement)
		}
	}
	return duplicates
}
