package ats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atscore/internal/types"
)

type stubRemote struct {
	calls  int
	result types.ExtractedKeywords
	err    error
}

func (s *stubRemote) ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.ExtractedKeywords, error) {
	s.calls++
	if s.err != nil {
		return types.ExtractedKeywords{}, s.err
	}
	return s.result, nil
}

func richRemoteResult() types.ExtractedKeywords {
	return types.ExtractedKeywords{
		Categories: types.KeywordCategories{
			TechnicalSkills: []string{"Go", "PostgreSQL"},
			Tools:           []string{"Docker"},
			SoftSkills:      []string{"Communication"},
		},
	}
}

const sampleJob = "We are hiring a backend engineer with Go, PostgreSQL and Docker experience to build microservices."

func TestExtractorCachesRemoteResults(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	remote := &stubRemote{result: richRemoteResult()}
	extractor := NewExtractor(remote, NewMemoryCacheWithClock(5*time.Minute, clock), nil)

	first := extractor.Extract(context.Background(), sampleJob)
	second := extractor.Extract(context.Background(), sampleJob)

	assert.Equal(t, 1, remote.calls, "second call within the TTL must hit the cache")
	assert.Equal(t, first, second)

	// After expiry the remote is consulted again.
	now = now.Add(6 * time.Minute)
	extractor.Extract(context.Background(), sampleJob)
	assert.Equal(t, 2, remote.calls)

	stats := extractor.Stats()
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(2), stats.CacheMisses)
}

func TestExtractorFallsBackOnRemoteError(t *testing.T) {
	remote := &stubRemote{err: errors.New("service unavailable")}
	extractor := NewExtractor(remote, NewMemoryCache(), nil)

	result := extractor.Extract(context.Background(), sampleJob)

	require.NotEmpty(t, result.Keywords, "fallback must recognize terms from the pattern battery")
	assert.Contains(t, result.Keywords, "Go")
	assert.Contains(t, result.Keywords, "Docker")
	assert.Equal(t, result.Keywords, result.Categories.General)
	assert.Equal(t, int64(1), extractor.Stats().Fallbacks)
}

func TestExtractorFallsBackOnSparseResult(t *testing.T) {
	remote := &stubRemote{result: types.ExtractedKeywords{
		Categories: types.KeywordCategories{TechnicalSkills: []string{"Go"}},
	}}
	extractor := NewExtractor(remote, NewMemoryCache(), nil)

	result := extractor.Extract(context.Background(), sampleJob)

	assert.NotEmpty(t, result.Categories.General,
		"a sparse remote result is replaced by the local fallback")
}

func TestExtractorWithoutRemote(t *testing.T) {
	extractor := NewExtractor(nil, NewMemoryCache(), nil)
	result := extractor.Extract(context.Background(), sampleJob)
	assert.NotEmpty(t, result.Keywords)
}

func TestExtractorFlattensRemoteCategories(t *testing.T) {
	remote := &stubRemote{result: types.ExtractedKeywords{
		Categories: types.KeywordCategories{
			TechnicalSkills: []string{"Go", "Docker"},
			Tools:           []string{"Docker", "Git"},
		},
	}}
	extractor := NewExtractor(remote, NewMemoryCache(), nil)

	result := extractor.Extract(context.Background(), sampleJob)

	assert.ElementsMatch(t, []string{"Go", "Docker", "Git"}, result.Keywords,
		"flat keyword list is rebuilt deduplicated from the categories")
}

func TestBuildKeywordAnalysis(t *testing.T) {
	extracted := types.ExtractedKeywords{
		Keywords: []string{"Go", "Docker", "Terraform"},
		Categories: types.KeywordCategories{
			TechnicalSkills: []string{"Go"},
			Tools:           []string{"Docker", "Terraform"},
		},
	}
	text := "backend developer writing go services deployed with docker"

	analysis := BuildKeywordAnalysis(text, extracted)

	assert.ElementsMatch(t, []string{"Go", "Docker"}, analysis.Found)
	assert.ElementsMatch(t, []string{"Terraform"}, analysis.Missing)
	assert.Len(t, analysis.All, 3)
	assert.Equal(t, []string{"Go"}, analysis.Categories.TechnicalSkills.Found)
	assert.Equal(t, []string{"Terraform"}, analysis.Categories.Tools.Missing)
}

func TestFallbackExtract(t *testing.T) {
	t.Run("canonical casing and dedup", func(t *testing.T) {
		result := FallbackExtract("Looking for nodejs and Node.js developers with react experience")
		count := 0
		for _, kw := range result.Keywords {
			if kw == "Node.js" {
				count++
			}
		}
		assert.Equal(t, 1, count, "multi-form terms collapse to one canonical entry")
		assert.Contains(t, result.Keywords, "React")
	})

	t.Run("capped at fifteen", func(t *testing.T) {
		jd := "javascript typescript python java golang ruby php c++ c# swift kotlin rust scala react angular vue django flask spring docker kubernetes"
		result := FallbackExtract(jd)
		assert.LessOrEqual(t, len(result.Keywords), fallbackKeywordCap)
	})

	t.Run("no recognizable terms", func(t *testing.T) {
		result := FallbackExtract("we need a friendly person for the front desk")
		assert.Empty(t, result.Keywords)
	})
}
