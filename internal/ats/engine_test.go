package ats

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atscore/internal/types"
)

const engineJobDescription = "We are looking for a Backend Engineer experienced with Go, PostgreSQL, Docker and Kubernetes to design and operate payment microservices at scale."

func newTestEngine(remote RemoteExtractor) *Engine {
	extractor := NewExtractor(remote, NewMemoryCache(), nil)
	clock := func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return NewEngine(extractor, nil, WithClock(clock))
}

func scoringResume() *types.ResumeDocument {
	resume := fullResume()
	resume.JobDescription = engineJobDescription
	return resume
}

func TestEngineScore(t *testing.T) {
	engine := newTestEngine(nil)

	t.Run("well formed result", func(t *testing.T) {
		result := engine.Score(context.Background(), scoringResume())

		assert.GreaterOrEqual(t, result.GeneralScore, 0)
		assert.LessOrEqual(t, result.GeneralScore, 100)
		require.Len(t, result.GeneralFeedback, 6)
		for _, f := range result.GeneralFeedback {
			assert.GreaterOrEqual(t, f.Score, 0)
			assert.LessOrEqual(t, f.Score, 100)
			assert.NotEmpty(t, f.Feedback)
		}
		assert.NotEmpty(t, result.Keywords.All)
		assert.NotEmpty(t, result.Suggestions)
		assert.LessOrEqual(t, len(result.Suggestions), maxSuggestions)
		require.NotNil(t, result.JobSpecificScore)
		assert.GreaterOrEqual(t, *result.JobSpecificScore, 0)
		assert.LessOrEqual(t, *result.JobSpecificScore, 100)
	})

	t.Run("idempotent with warm cache", func(t *testing.T) {
		first := engine.Score(context.Background(), scoringResume())
		second := engine.Score(context.Background(), scoringResume())
		assert.Equal(t, first, second)
	})

	t.Run("nil resume", func(t *testing.T) {
		result := engine.Score(context.Background(), nil)
		assert.Equal(t, 0, result.GeneralScore)
		require.Len(t, result.Suggestions, 1)
	})

	t.Run("empty job description", func(t *testing.T) {
		resume := scoringResume()
		resume.JobDescription = ""
		result := engine.Score(context.Background(), resume)
		assert.Equal(t, 0, result.GeneralScore)
		require.Len(t, result.Suggestions, 1)
		assert.Contains(t, strings.ToLower(result.Suggestions[0]), "job description")
	})

	t.Run("missing target title", func(t *testing.T) {
		resume := scoringResume()
		resume.TargetTitle = ""
		result := engine.Score(context.Background(), resume)
		assert.Equal(t, 0, result.GeneralScore)
	})

	t.Run("short job description", func(t *testing.T) {
		resume := scoringResume()
		resume.JobDescription = "Backend engineer wanted."
		result := engine.Score(context.Background(), resume)
		assert.Equal(t, 0, result.GeneralScore)
		require.Len(t, result.Suggestions, 1)
		assert.Contains(t, strings.ToLower(result.Suggestions[0]), "too short")
	})

	t.Run("empty resume floor", func(t *testing.T) {
		resume := &types.ResumeDocument{
			TargetTitle:    "Backend Engineer",
			JobDescription: engineJobDescription,
		}
		result := engine.Score(context.Background(), resume)
		assert.Equal(t, emptyResumeScore, result.GeneralScore)
		assert.NotEmpty(t, result.Suggestions)
	})

	t.Run("html job description is stripped", func(t *testing.T) {
		resume := scoringResume()
		resume.JobDescription = "<html><body><h1>Backend Engineer</h1><p>" + engineJobDescription + "</p></body></html>"
		result := engine.Score(context.Background(), resume)
		assert.Greater(t, result.GeneralScore, 0)
		assert.NotEmpty(t, result.Keywords.All)
	})
}

func TestEngineKeywordMonotonicity(t *testing.T) {
	engine := newTestEngine(nil)

	withoutKeyword := scoringResume()
	withoutKeyword.Skills.Technical = []string{"Docker"}

	withKeyword := scoringResume()
	withKeyword.Skills.Technical = []string{"Docker", "PostgreSQL", "Kubernetes"}

	before := engine.Score(context.Background(), withoutKeyword)
	after := engine.Score(context.Background(), withKeyword)

	assert.GreaterOrEqual(t, keywordSubScore(t, after), keywordSubScore(t, before),
		"adding a required keyword must not lower the keyword sub-score")
}

func keywordSubScore(t *testing.T, result types.ATSScoreResult) int {
	t.Helper()
	for _, f := range result.GeneralFeedback {
		if f.Category == "keywordMatch" {
			return f.Score
		}
	}
	t.Fatal("keywordMatch feedback entry missing")
	return 0
}

func TestEngineFallbackGuarantee(t *testing.T) {
	remote := &stubRemote{err: errors.New("classifier down")}
	engine := newTestEngine(remote)

	result := engine.Score(context.Background(), scoringResume())

	assert.NotEmpty(t, result.Keywords.All,
		"fallback extraction must surface keywords when the job description names technical terms")
	assert.Greater(t, result.GeneralScore, 0)
}

func TestEngineUsesRemoteCategories(t *testing.T) {
	remote := &stubRemote{result: types.ExtractedKeywords{
		Categories: types.KeywordCategories{
			TechnicalSkills: []string{"Go", "PostgreSQL"},
			Tools:           []string{"Docker"},
			SoftSkills:      []string{"Mentoring"},
		},
	}}
	engine := newTestEngine(remote)

	result := engine.Score(context.Background(), scoringResume())

	assert.Equal(t, 1, remote.calls)
	assert.NotEmpty(t, result.Keywords.Categories.TechnicalSkills.All)
	assert.Empty(t, result.Keywords.Categories.General.All)
}

func TestEngineRecoversFromPanic(t *testing.T) {
	engine := newTestEngine(panickingRemote{})

	result := engine.Score(context.Background(), scoringResume())

	assert.Equal(t, 0, result.GeneralScore)
	require.Len(t, result.Suggestions, 1)
	assert.Contains(t, strings.ToLower(result.Suggestions[0]), "try again")
}

type panickingRemote struct{}

func (panickingRemote) ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.ExtractedKeywords, error) {
	panic("classifier exploded")
}

func BenchmarkEngineScoreWarmCache(b *testing.B) {
	engine := newTestEngine(nil)
	resume := scoringResume()
	engine.Score(context.Background(), resume)

	for b.Loop() {
		engine.Score(context.Background(), resume)
	}
}
