package ats

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"atscore/internal/types"
)

// SubScores holds the six component scores, each in [0,100].
type SubScores struct {
	KeywordMatch        int `json:"keywordMatch"`
	Formatting          int `json:"formatting"`
	Completeness        int `json:"completeness"`
	ExperienceRelevance int `json:"experienceRelevance"`
	SkillsMatch         int `json:"skillsMatch"`
	ContentQuality      int `json:"contentQuality"`
}

func clampScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

// scoreKeywordMatch rates keyword coverage: base ratio of found keywords,
// a diversity bonus for spreading hits across categories, and a penalty
// when the hard-requirement categories pile up misses.
func scoreKeywordMatch(analysis *types.KeywordAnalysis) int {
	total := len(analysis.All)
	if total == 0 {
		return 0
	}

	base := float64(len(analysis.Found)) / float64(total) * 100

	categoriesWithKeywords := 0
	categoriesWithFound := 0
	for _, name := range types.CategoryNames {
		bucket := analysis.Categories.Get(name)
		if len(bucket.All) == 0 {
			continue
		}
		categoriesWithKeywords++
		if len(bucket.Found) > 0 {
			categoriesWithFound++
		}
	}
	diversityBonus := 0.0
	if categoriesWithKeywords > 0 {
		diversityBonus = 10 * float64(categoriesWithFound) / float64(categoriesWithKeywords)
	}

	criticalMissing := len(analysis.Categories.TechnicalSkills.Missing) +
		len(analysis.Categories.Tools.Missing) +
		len(analysis.Categories.Certifications.Missing)
	penalty := 0.0
	if criticalMissing > 5 {
		penalty = math.Min(15, float64(criticalMissing-5)*2)
	}

	return clampScore(base + diversityBonus - penalty)
}

// scoreFormatting checks ATS-parseable structure: contact fields present,
// major sections present, dates and position/company fields filled in.
func scoreFormatting(resume *types.ResumeDocument) int {
	score := 100.0

	if strings.TrimSpace(resume.Name) == "" {
		score -= 15
	}
	if strings.TrimSpace(resume.Email) == "" {
		score -= 15
	}
	if strings.TrimSpace(resume.Phone) == "" {
		score -= 10
	}
	if len(resume.Experience) == 0 {
		score -= 20
	}
	if len(resume.Education) == 0 {
		score -= 15
	}
	if resume.Skills.Count() == 0 {
		score -= 15
	}

	inconsistentDates := false
	missingFields := false
	for _, exp := range resume.Experience {
		if exp.StartDate == "" || (exp.EndDate == "" && !exp.Current) {
			inconsistentDates = true
		}
		if strings.TrimSpace(exp.Position) == "" || strings.TrimSpace(exp.Company) == "" {
			missingFields = true
		}
	}
	if inconsistentDates {
		score -= 10
	}
	if missingFields {
		score -= 15
	}

	return clampScore(score)
}

// scoreCompleteness rates how much of the resume is filled in.
func scoreCompleteness(resume *types.ResumeDocument) int {
	score := 100.0

	if strings.TrimSpace(resume.Email) == "" {
		score -= 10
	}
	if strings.TrimSpace(resume.Phone) == "" {
		score -= 10
	}
	if strings.TrimSpace(resume.Location) == "" {
		score -= 10
	}

	summary := strings.TrimSpace(resume.Summary)
	if summary == "" {
		score -= 20
	} else if len(summary) < 100 {
		score -= 10
	}

	if len(resume.Experience) == 0 {
		score -= 25
	} else {
		for _, exp := range resume.Experience {
			if strings.TrimSpace(exp.Position) == "" || strings.TrimSpace(exp.Company) == "" || exp.StartDate == "" {
				score -= 5
			}
			if strings.TrimSpace(exp.Description) == "" && len(exp.Achievements) == 0 {
				score -= 3
			}
		}
	}

	if len(resume.Education) == 0 {
		score -= 15
	}
	if resume.Skills.Count() == 0 {
		score -= 10
	}

	return clampScore(score)
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// endDateYear parses a four-digit year out of a free-form end date string.
func endDateYear(endDate string) (int, bool) {
	match := yearPattern.FindString(endDate)
	if match == "" {
		return 0, false
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return year, true
}

// scoreExperienceRelevance rates how well the work history lines up with
// the target title. Entries mentioning a meaningful title word count as
// relevant; a recency bonus applies when a relevant entry is current or
// recent.
func scoreExperienceRelevance(resume *types.ResumeDocument, now time.Time) int {
	if len(resume.Experience) == 0 {
		return 0
	}

	var titleWords []string
	for _, word := range strings.Fields(strings.ToLower(resume.TargetTitle)) {
		if len(word) > 3 {
			titleWords = append(titleWords, word)
		}
	}

	relevant := make([]bool, len(resume.Experience))
	relevantCount := 0
	for i, exp := range resume.Experience {
		haystack := strings.ToLower(exp.Position + " " + exp.Description + " " + strings.Join(exp.Achievements, " "))
		for _, word := range titleWords {
			if strings.Contains(haystack, word) {
				relevant[i] = true
				relevantCount++
				break
			}
		}
	}

	if relevantCount == 0 {
		// Transferable-skills floor: experience exists, none on target.
		return 20
	}

	score := 30 + 70*float64(relevantCount)/float64(len(resume.Experience))

	recentCutoff := now.Year() - 3
	for i, exp := range resume.Experience {
		if !relevant[i] {
			continue
		}
		if exp.Current {
			score += 10
			break
		}
		if year, ok := endDateYear(exp.EndDate); ok && year >= recentCutoff {
			score += 10
			break
		}
	}

	return clampScore(score)
}

// jobSkillsFromAnalysis gathers the job-required skills derivable from the
// keyword analysis: technical skills, soft skills, and tools.
func jobSkillsFromAnalysis(analysis *types.KeywordAnalysis) []string {
	if analysis == nil {
		return nil
	}
	var skills []string
	skills = append(skills, analysis.Categories.TechnicalSkills.All...)
	skills = append(skills, analysis.Categories.SoftSkills.All...)
	skills = append(skills, analysis.Categories.Tools.All...)
	return skills
}

// scoreSkillsMatch rates the skills section on its own merits plus its
// overlap with the job's required skills when those are known.
func scoreSkillsMatch(resume *types.ResumeDocument, analysis *types.KeywordAnalysis) int {
	count := resume.Skills.Count()
	if count == 0 {
		return 0
	}

	score := 30.0

	switch {
	case count >= 5 && count <= 20:
		score += 20
	case count < 5:
		score += 10
	case count > 30:
		score += 15
	}

	if len(resume.Skills.Technical) > 0 && len(resume.Skills.Soft) > 0 {
		score += 10
	}

	jobSkills := jobSkillsFromAnalysis(analysis)
	if len(jobSkills) == 0 {
		// No derivable requirements: partial credit instead of a coverage bonus.
		score += 20
		return clampScore(score)
	}

	userSkills := resume.Skills.All()
	matched := 0
	for _, jobSkill := range jobSkills {
		for _, userSkill := range userSkills {
			if normalizedTokenOverlap(userSkill, jobSkill, skillOverlapThreshold) {
				matched++
				break
			}
		}
	}
	overlapPct := float64(matched) / float64(len(jobSkills)) * 100

	switch {
	case overlapPct >= 80:
		score += 40
	case overlapPct >= 60:
		score += 30
	case overlapPct >= 40:
		score += 20
	case overlapPct >= 20:
		score += 10
	}

	return clampScore(score)
}

var digitPattern = regexp.MustCompile(`\d`)

// hasQuantifiedAchievement reports whether any achievement bullet contains
// a digit.
func hasQuantifiedAchievement(experiences []types.WorkExperience) bool {
	for _, exp := range experiences {
		for _, achievement := range exp.Achievements {
			if digitPattern.MatchString(achievement) {
				return true
			}
		}
	}
	return false
}

// scoreContentQuality penalizes thin, duplicated, and unquantified content.
func scoreContentQuality(resume *types.ResumeDocument, dupExperiences, dupAchievements int) int {
	score := 100.0

	words := len(strings.Fields(resume.Summary))
	if words < 20 {
		score -= 15
	} else if words > 100 {
		score -= 10
	}

	for _, exp := range resume.Experience {
		combined := exp.Description + strings.Join(exp.Achievements, "")
		if len(combined) < 50 {
			score -= 10
		}
	}

	score -= float64(dupExperiences) * 25
	score -= float64(dupAchievements) * 15

	if len(resume.Experience) > 0 && !hasQuantifiedAchievement(resume.Experience) {
		score -= 20
	}

	return clampScore(score)
}
