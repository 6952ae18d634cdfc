package ats

import (
	"math"
	"strings"
)

// Weights holds the relative importance of each sub-score.
type Weights struct {
	KeywordMatch        float64
	Formatting          float64
	Completeness        float64
	ExperienceRelevance float64
	SkillsMatch         float64
	ContentQuality      float64
}

// baseWeights sums to 1.0 before adjustment.
var baseWeights = Weights{
	KeywordMatch:        0.35,
	Formatting:          0.10,
	Completeness:        0.15,
	ExperienceRelevance: 0.25,
	SkillsMatch:         0.10,
	ContentQuality:      0.05,
}

// entryLevelMarkers flag target titles where direct experience matters less
// than skills and presentation.
var entryLevelMarkers = []string{"entry", "junior", "intern"}

// adjustWeights applies the adaptive rules to the base weights. The rules
// are additive, independent, and can all fire at once; the adjusted weights
// are deliberately NOT renormalized to sum to 1.0 afterwards. That is
// long-standing scoring behavior and downstream consumers depend on the
// exact numbers, so it must be preserved.
func adjustWeights(scores SubScores, targetTitle string) Weights {
	w := baseWeights

	if scores.Completeness < 50 {
		w.Completeness += 0.10
		w.KeywordMatch -= 0.05
		w.ExperienceRelevance -= 0.05
	}

	if scores.KeywordMatch < 30 {
		w.KeywordMatch += 0.10
		w.ExperienceRelevance -= 0.05
		w.ContentQuality -= 0.05
	}

	title := strings.ToLower(targetTitle)
	for _, marker := range entryLevelMarkers {
		if strings.Contains(title, marker) {
			w.ExperienceRelevance -= 0.10
			w.SkillsMatch += 0.05
			w.ContentQuality += 0.05
			break
		}
	}

	return w
}

// overallScore combines the sub-scores under the adjusted weights.
func overallScore(scores SubScores, w Weights) int {
	sum := float64(scores.KeywordMatch)*w.KeywordMatch +
		float64(scores.Formatting)*w.Formatting +
		float64(scores.Completeness)*w.Completeness +
		float64(scores.ExperienceRelevance)*w.ExperienceRelevance +
		float64(scores.SkillsMatch)*w.SkillsMatch +
		float64(scores.ContentQuality)*w.ContentQuality

	rounded := int(math.Round(sum))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
