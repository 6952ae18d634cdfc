package ats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atscore/internal/types"
)

func fullResume() *types.ResumeDocument {
	return &types.ResumeDocument{
		Name:        "Dana Smith",
		Email:       "dana@example.com",
		Phone:       "555-0100",
		Location:    "Berlin",
		Summary:     "Backend engineer with eight years of experience designing and operating distributed services, leading small teams, and mentoring developers across several product areas.",
		TargetTitle: "Backend Engineer",
		Experience: []types.WorkExperience{
			{
				Position:    "Backend Engineer",
				Company:     "Acme",
				StartDate:   "2021-03",
				Current:     true,
				Description: "Designed and operated payment processing services handling high transaction volumes.",
				Achievements: []string{
					"Reduced p99 latency by 40% across the payment pipeline",
					"Mentored four junior engineers through promotion",
				},
			},
			{
				Position:    "Software Developer",
				Company:     "Globex",
				StartDate:   "2018-01",
				EndDate:     "2021-02",
				Description: "Built internal tooling and migrated legacy batch jobs to streaming infrastructure.",
				Achievements: []string{
					"Cut nightly batch runtime from 6 hours to 45 minutes",
				},
			},
		},
		Education: []types.Education{
			{Degree: "BSc", Field: "Computer Science", Institution: "TU Berlin", StartDate: "2012", EndDate: "2016"},
		},
		Skills: types.SkillSet{
			Technical: []string{"Go", "PostgreSQL", "Docker", "Kubernetes", "Redis"},
			Soft:      []string{"Communication", "Mentoring"},
		},
	}
}

func analysisWith(found, missing []string) *types.KeywordAnalysis {
	analysis := &types.KeywordAnalysis{
		Found:   found,
		Missing: missing,
		All:     append(append([]string{}, found...), missing...),
	}
	analysis.Categories.TechnicalSkills = types.KeywordBucket{
		Found:   found,
		Missing: missing,
		All:     analysis.All,
	}
	return analysis
}

func TestScoreKeywordMatch(t *testing.T) {
	t.Run("no keywords", func(t *testing.T) {
		assert.Equal(t, 0, scoreKeywordMatch(&types.KeywordAnalysis{}))
	})

	t.Run("full coverage", func(t *testing.T) {
		analysis := analysisWith([]string{"Go", "Docker"}, nil)
		score := scoreKeywordMatch(analysis)
		assert.Equal(t, 100, score, "full coverage with diversity bonus clamps to 100")
	})

	t.Run("monotonic in found keywords", func(t *testing.T) {
		worse := scoreKeywordMatch(analysisWith([]string{"Go"}, []string{"Docker", "Redis"}))
		better := scoreKeywordMatch(analysisWith([]string{"Go", "Docker"}, []string{"Redis"}))
		assert.GreaterOrEqual(t, better, worse)
	})

	t.Run("critical missing penalty", func(t *testing.T) {
		missing := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
		analysis := analysisWith([]string{"Go"}, missing)
		withPenalty := scoreKeywordMatch(analysis)

		fewMissing := analysisWith([]string{"Go"}, []string{"a"})
		assert.Less(t, withPenalty, scoreKeywordMatch(fewMissing))
	})

	t.Run("bounds", func(t *testing.T) {
		score := scoreKeywordMatch(analysisWith(nil, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}))
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	})
}

func TestScoreFormatting(t *testing.T) {
	t.Run("complete resume", func(t *testing.T) {
		assert.Equal(t, 100, scoreFormatting(fullResume()))
	})

	t.Run("missing contact fields", func(t *testing.T) {
		resume := fullResume()
		resume.Name = ""
		resume.Email = ""
		resume.Phone = ""
		assert.Equal(t, 60, scoreFormatting(resume))
	})

	t.Run("missing everything", func(t *testing.T) {
		// All contact and section deductions apply, date and field checks
		// have no entries to inspect.
		assert.Equal(t, 10, scoreFormatting(&types.ResumeDocument{}))
	})

	t.Run("inconsistent dates", func(t *testing.T) {
		resume := fullResume()
		resume.Experience[1].EndDate = ""
		assert.Equal(t, 90, scoreFormatting(resume))
	})

	t.Run("missing position", func(t *testing.T) {
		resume := fullResume()
		resume.Experience[0].Position = ""
		assert.Equal(t, 85, scoreFormatting(resume))
	})
}

func TestScoreCompleteness(t *testing.T) {
	t.Run("complete resume", func(t *testing.T) {
		assert.Equal(t, 100, scoreCompleteness(fullResume()))
	})

	t.Run("short summary", func(t *testing.T) {
		resume := fullResume()
		resume.Summary = "Backend engineer."
		assert.Equal(t, 90, scoreCompleteness(resume))
	})

	t.Run("missing summary", func(t *testing.T) {
		resume := fullResume()
		resume.Summary = ""
		assert.Equal(t, 80, scoreCompleteness(resume))
	})

	t.Run("no experience", func(t *testing.T) {
		resume := fullResume()
		resume.Experience = nil
		assert.Equal(t, 75, scoreCompleteness(resume))
	})

	t.Run("incomplete entries", func(t *testing.T) {
		resume := fullResume()
		resume.Experience[0].Company = ""
		resume.Experience[1].Description = ""
		resume.Experience[1].Achievements = nil
		// -5 incomplete entry, -3 entry without description or achievements
		assert.Equal(t, 92, scoreCompleteness(resume))
	})

	t.Run("empty resume floors at zero", func(t *testing.T) {
		assert.Equal(t, 0, scoreCompleteness(&types.ResumeDocument{}))
	})
}

func TestScoreExperienceRelevance(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("no experience", func(t *testing.T) {
		resume := fullResume()
		resume.Experience = nil
		assert.Equal(t, 0, scoreExperienceRelevance(resume, now))
	})

	t.Run("relevant current role", func(t *testing.T) {
		resume := fullResume()
		resume.TargetTitle = "Backend Engineer"
		// One of two entries relevant: 30 + 35, plus the current-role bonus.
		assert.Equal(t, 75, scoreExperienceRelevance(resume, now))
	})

	t.Run("none relevant gives transferable floor", func(t *testing.T) {
		resume := fullResume()
		resume.TargetTitle = "Veterinary Surgeon"
		assert.Equal(t, 20, scoreExperienceRelevance(resume, now))
	})

	t.Run("recency bonus from parsed end date", func(t *testing.T) {
		resume := fullResume()
		resume.TargetTitle = "Software Developer"
		resume.Experience[0].Current = false
		resume.Experience[0].EndDate = "2019-06"
		// Second entry is relevant ("software developer" title words) and
		// ended 2021-02, within three years of a 2023 clock.
		early := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		withBonus := scoreExperienceRelevance(resume, early)
		late := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		withoutBonus := scoreExperienceRelevance(resume, late)
		assert.Equal(t, withBonus, withoutBonus+10)
	})

	t.Run("clamped to 100", func(t *testing.T) {
		resume := fullResume()
		resume.TargetTitle = "Engineer Developer"
		score := scoreExperienceRelevance(resume, now)
		assert.LessOrEqual(t, score, 100)
	})
}

func TestScoreSkillsMatch(t *testing.T) {
	t.Run("no skills", func(t *testing.T) {
		resume := fullResume()
		resume.Skills = types.SkillSet{}
		assert.Equal(t, 0, scoreSkillsMatch(resume, nil))
	})

	t.Run("no job skills gives partial credit", func(t *testing.T) {
		resume := fullResume()
		// 30 base + 20 count band (7 skills) + 10 split + 20 partial credit
		assert.Equal(t, 80, scoreSkillsMatch(resume, &types.KeywordAnalysis{}))
	})

	t.Run("high overlap bonus", func(t *testing.T) {
		resume := fullResume()
		analysis := &types.KeywordAnalysis{}
		analysis.Categories.TechnicalSkills = types.KeywordBucket{All: []string{"Go", "PostgreSQL", "Docker"}}
		// 30 + 20 + 10 + 40 (3/3 matched) = 100
		assert.Equal(t, 100, scoreSkillsMatch(resume, analysis))
	})

	t.Run("low overlap", func(t *testing.T) {
		resume := fullResume()
		analysis := &types.KeywordAnalysis{}
		analysis.Categories.TechnicalSkills = types.KeywordBucket{
			All: []string{"Haskell", "Erlang", "Prolog", "Fortran", "COBOL"},
		}
		// 30 + 20 + 10, no overlap bonus
		assert.Equal(t, 60, scoreSkillsMatch(resume, analysis))
	})

	t.Run("few skills band", func(t *testing.T) {
		resume := fullResume()
		resume.Skills = types.SkillSet{Technical: []string{"Go", "SQL"}}
		// 30 + 10 (under five skills), no soft/technical split, +20 partial credit
		assert.Equal(t, 60, scoreSkillsMatch(resume, &types.KeywordAnalysis{}))
	})
}

func TestScoreContentQuality(t *testing.T) {
	t.Run("quality resume", func(t *testing.T) {
		assert.Equal(t, 100, scoreContentQuality(fullResume(), 0, 0))
	})

	t.Run("duplicate experience penalty", func(t *testing.T) {
		resume := fullResume()
		base := scoreContentQuality(resume, 0, 0)
		withDup := scoreContentQuality(resume, 1, 0)
		assert.Equal(t, base-25, withDup)
	})

	t.Run("duplicate achievement penalty", func(t *testing.T) {
		resume := fullResume()
		assert.Equal(t, scoreContentQuality(resume, 0, 0)-15, scoreContentQuality(resume, 0, 1))
	})

	t.Run("short summary penalty", func(t *testing.T) {
		resume := fullResume()
		resume.Summary = "Engineer."
		assert.Equal(t, 85, scoreContentQuality(resume, 0, 0))
	})

	t.Run("thin experience entries", func(t *testing.T) {
		resume := fullResume()
		resume.Experience[0].Description = "Worked."
		resume.Experience[0].Achievements = nil
		resume.Experience[1].Achievements = append(resume.Experience[1].Achievements, "kept 1 system running")
		assert.Equal(t, 90, scoreContentQuality(resume, 0, 0))
	})

	t.Run("no quantified achievements", func(t *testing.T) {
		resume := fullResume()
		for i := range resume.Experience {
			resume.Experience[i].Achievements = []string{"improved things considerably across the organization"}
		}
		assert.Equal(t, 80, scoreContentQuality(resume, 0, 0))
	})

	t.Run("floors at zero", func(t *testing.T) {
		resume := fullResume()
		score := scoreContentQuality(resume, 3, 5)
		assert.Equal(t, 0, score)
	})
}

func TestSubScoreBounds(t *testing.T) {
	resumes := []*types.ResumeDocument{
		{},
		fullResume(),
		{Experience: make([]types.WorkExperience, 30)},
	}
	analysis := analysisWith([]string{"Go"}, []string{"Rust", "Scala", "Erlang", "Elixir", "Haskell", "Clojure", "Kotlin"})
	now := time.Now()

	for _, resume := range resumes {
		for _, score := range []int{
			scoreKeywordMatch(analysis),
			scoreFormatting(resume),
			scoreCompleteness(resume),
			scoreExperienceRelevance(resume, now),
			scoreSkillsMatch(resume, analysis),
			scoreContentQuality(resume, CountDuplicateExperiences(resume.Experience), CountDuplicateAchievements(resume.Experience)),
		} {
			require.GreaterOrEqual(t, score, 0)
			require.LessOrEqual(t, score, 100)
		}
	}
}
