package ats

import (
	"context"
	"math"
	"strings"
	"time"

	"atscore/internal/errors"
	"atscore/internal/types"
)

// minJobDescriptionLen is the shortest job description worth scoring
// against.
const minJobDescriptionLen = 50

// emptyResumeScore is the fixed score returned for a resume with no usable
// content.
const emptyResumeScore = 15

// Engine is the ATS compatibility scorer. It owns no state beyond the
// extraction cache inside its Extractor; every call produces a fresh
// result. Safe for concurrent use.
type Engine struct {
	extractor *Extractor
	logger    *errors.Logger
	now       func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock injects the clock used for recency checks. Tests use this to
// pin the current year.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds a scorer around the given extractor.
func NewEngine(extractor *Extractor, logger *errors.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		extractor: extractor,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extractor exposes the engine's extractor for health reporting.
func (e *Engine) Extractor() *Extractor {
	return e.extractor
}

// Score computes the ATS compatibility result for a resume. It never
// returns an error and never panics: input-insufficiency cases produce
// guidance results, extraction failures degrade to the local fallback, and
// any internal panic is recovered into a zero-score retry result.
func (e *Engine) Score(ctx context.Context, resume *types.ResumeDocument) (result types.ATSScoreResult) {
	defer func() {
		if r := recover(); r != nil {
			if e.logger != nil {
				e.logger.LogError(
					errors.NewInternalError(errors.ErrCodeScoringPanic, "Scoring pass panicked", nil).
						WithContext("panic", r),
					"Recovered panic during ATS scoring")
			}
			result = zeroResult("Something went wrong while calculating your ATS score. Please try again.")
		}
	}()

	if resume == nil {
		return zeroResult("Add a job description and a target job title to calculate your ATS score.")
	}

	jobDescription := strings.TrimSpace(StripHTML(resume.JobDescription))
	if jobDescription == "" || strings.TrimSpace(resume.TargetTitle) == "" {
		return zeroResult("Add a job description and a target job title to calculate your ATS score.")
	}
	if len(jobDescription) < minJobDescriptionLen {
		return zeroResult("The job description is too short to analyze. Paste the full posting for an accurate score.")
	}

	if isEmptyResume(resume) {
		return emptyResumeResult()
	}

	extracted := e.extractor.Extract(ctx, jobDescription)
	normalized := NormalizeResume(resume)
	analysis := BuildKeywordAnalysis(normalized, extracted)

	dupExperiences := CountDuplicateExperiences(resume.Experience)
	dupAchievements := CountDuplicateAchievements(resume.Experience)

	scores := SubScores{
		KeywordMatch:        scoreKeywordMatch(&analysis),
		Formatting:          scoreFormatting(resume),
		Completeness:        scoreCompleteness(resume),
		ExperienceRelevance: scoreExperienceRelevance(resume, e.now()),
		SkillsMatch:         scoreSkillsMatch(resume, &analysis),
		ContentQuality:      scoreContentQuality(resume, dupExperiences, dupAchievements),
	}

	weights := adjustWeights(scores, resume.TargetTitle)
	general := overallScore(scores, weights)

	jobSpecific := jobSpecificScore(scores, &analysis)

	suggestions := buildSuggestions(suggestionInput{
		resume:          resume,
		analysis:        &analysis,
		scores:          scores,
		dupExperiences:  dupExperiences,
		dupAchievements: dupAchievements,
	})

	return types.ATSScoreResult{
		GeneralScore:     general,
		JobSpecificScore: jobSpecific,
		GeneralFeedback:  buildCategoryFeedback(scores),
		Keywords:         analysis,
		Suggestions:      suggestions,
	}
}

// jobSpecificScore blends the two job-dependent sub-scores when keyword
// analysis produced anything to blend.
func jobSpecificScore(scores SubScores, analysis *types.KeywordAnalysis) *int {
	if len(analysis.All) == 0 {
		return nil
	}
	blended := int(math.Round(0.6*float64(scores.KeywordMatch) + 0.4*float64(scores.SkillsMatch)))
	if blended < 0 {
		blended = 0
	}
	if blended > 100 {
		blended = 100
	}
	return &blended
}

// isEmptyResume reports whether the resume has neither contact info nor
// meaningful content in any major section.
func isEmptyResume(resume *types.ResumeDocument) bool {
	hasContact := strings.TrimSpace(resume.Name) != "" ||
		strings.TrimSpace(resume.Email) != "" ||
		strings.TrimSpace(resume.Phone) != ""
	hasContent := strings.TrimSpace(resume.Summary) != "" ||
		len(resume.Experience) > 0 ||
		len(resume.Education) > 0 ||
		resume.Skills.Count() > 0 ||
		len(resume.Projects) > 0 ||
		len(resume.Certifications) > 0
	return !hasContact && !hasContent
}

func zeroResult(suggestion string) types.ATSScoreResult {
	return types.ATSScoreResult{
		GeneralScore:    0,
		GeneralFeedback: []types.CategoryFeedback{},
		Keywords: types.KeywordAnalysis{
			Found:   []string{},
			Missing: []string{},
			All:     []string{},
		},
		Suggestions: []string{suggestion},
	}
}

func emptyResumeResult() types.ATSScoreResult {
	result := zeroResult("Add your contact information so employers and ATS systems can identify you.")
	result.GeneralScore = emptyResumeScore
	result.Suggestions = []string{
		"Add your contact information so employers and ATS systems can identify you.",
		"Add your work experience with concrete responsibilities and achievements.",
		"Add your education history.",
		"Add a skills section listing your technical and soft skills.",
		"Write a professional summary describing your target role.",
	}
	return result
}
