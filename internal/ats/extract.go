package ats

import (
	"context"
	"strings"
	"sync"
	"time"

	"atscore/internal/errors"
	"atscore/internal/types"
)

// sparseResultFloor is the minimum total keyword count a remote extraction
// must carry to be trusted over the local fallback.
const sparseResultFloor = 3

// defaultRemoteTimeout bounds the remote extraction call so a hung
// classifier degrades to the fallback instead of stalling the scoring pass.
const defaultRemoteTimeout = 30 * time.Second

// RemoteExtractor is the outbound classification dependency. A failed call
// returns an error; the Extractor degrades to the local battery on any
// error, so implementations never need their own fallback.
type RemoteExtractor interface {
	ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.ExtractedKeywords, error)
}

// ExtractorStats is a snapshot of cache traffic and degrade counts, exposed
// through the health endpoint.
type ExtractorStats struct {
	CacheHits   int64 `json:"cacheHits"`
	CacheMisses int64 `json:"cacheMisses"`
	Fallbacks   int64 `json:"fallbacks"`
	RemoteCalls int64 `json:"remoteCalls"`
}

// Extractor obtains categorized keywords for a job description: cache
// first, then the remote classifier, then the local regex battery. Extract
// never fails; every error path degrades to the fallback.
type Extractor struct {
	remote  RemoteExtractor
	cache   ExtractionCache
	logger  *errors.Logger
	timeout time.Duration

	statsMu sync.Mutex
	stats   ExtractorStats
}

// NewExtractor wires an extractor. remote may be nil, in which case every
// miss goes straight to the local battery.
func NewExtractor(remote RemoteExtractor, cache ExtractionCache, logger *errors.Logger) *Extractor {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Extractor{
		remote:  remote,
		cache:   cache,
		logger:  logger,
		timeout: defaultRemoteTimeout,
	}
}

// WithTimeout overrides the remote call timeout.
func (e *Extractor) WithTimeout(timeout time.Duration) *Extractor {
	if timeout > 0 {
		e.timeout = timeout
	}
	return e
}

func (e *Extractor) bump(f func(*ExtractorStats)) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	f(&e.stats)
}

// Stats returns a snapshot of the extractor counters.
func (e *Extractor) Stats() ExtractorStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// Extract returns the keyword set for a job description. The result comes
// from the cache, the remote classifier, or the local fallback, in that
// order of preference; whichever is used is cached under the original key.
func (e *Extractor) Extract(ctx context.Context, jobDescription string) types.ExtractedKeywords {
	key := CacheKey(jobDescription)
	if cached, ok := e.cache.Get(key); ok {
		e.bump(func(s *ExtractorStats) { s.CacheHits++ })
		return cached
	}
	e.bump(func(s *ExtractorStats) { s.CacheMisses++ })

	result, err := e.extractRemote(ctx, jobDescription)
	if err != nil {
		if e.logger != nil {
			e.logger.LogError(err, "Remote keyword extraction failed, using local fallback")
		}
		e.bump(func(s *ExtractorStats) { s.Fallbacks++ })
		result = FallbackExtract(jobDescription)
	}

	e.cache.Set(key, result)
	return result
}

// extractRemote runs the outbound classification call and validates the
// result. The explicit error return makes the degrade-to-fallback branch in
// Extract a visible decision rather than a hidden recover.
func (e *Extractor) extractRemote(ctx context.Context, jobDescription string) (types.ExtractedKeywords, error) {
	if e.remote == nil {
		return types.ExtractedKeywords{}, errors.NewExtractionError(errors.ErrCodeExtractionFailed,
			"No remote extractor configured", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	e.bump(func(s *ExtractorStats) { s.RemoteCalls++ })
	result, err := e.remote.ExtractKeywords(callCtx, types.ExtractKeywordsInput{JobDescription: jobDescription})
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return types.ExtractedKeywords{}, errors.NewExtractionError(errors.ErrCodeExtractorTimeout,
				"Remote keyword extraction timed out", err)
		}
		return types.ExtractedKeywords{}, errors.NewExtractionError(errors.ErrCodeExtractionFailed,
			"Remote keyword extraction failed", err)
	}

	if result.Categories.Total() < sparseResultFloor {
		return types.ExtractedKeywords{}, errors.NewExtractionError(errors.ErrCodeExtractionSparse,
			"Remote extraction returned too few keywords", nil).
			WithContext("total_keywords", result.Categories.Total())
	}

	// Rebuild the flat list from the categories so the two views never
	// disagree, whatever the classifier returned.
	result.Keywords = flattenCategories(&result.Categories)
	return result, nil
}

func flattenCategories(categories *types.KeywordCategories) []string {
	seen := make(map[string]bool)
	var all []string
	for _, name := range types.CategoryNames {
		for _, kw := range categories.Get(name) {
			key := normalizeKeywordKey(kw)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, kw)
		}
	}
	return all
}

func normalizeKeywordKey(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// BuildKeywordAnalysis classifies every extracted keyword as found or
// missing in the normalized resume text, overall and per category. The
// result is the shared read-only context for the scoring pass.
func BuildKeywordAnalysis(normalizedText string, extracted types.ExtractedKeywords) types.KeywordAnalysis {
	analysis := types.KeywordAnalysis{
		Found:   []string{},
		Missing: []string{},
		All:     []string{},
	}

	seen := make(map[string]bool)
	matched := make(map[string]bool)

	classify := func(keyword string) bool {
		key := normalizeKeywordKey(keyword)
		if key == "" {
			return false
		}
		if hit, ok := matched[key]; ok {
			return hit
		}
		hit := KeywordMatches(keyword, normalizedText)
		matched[key] = hit
		return hit
	}

	for _, name := range types.CategoryNames {
		bucket := types.KeywordBucket{Found: []string{}, Missing: []string{}, All: []string{}}
		for _, keyword := range extracted.Categories.Get(name) {
			key := normalizeKeywordKey(keyword)
			if key == "" {
				continue
			}
			bucket.All = append(bucket.All, keyword)
			hit := classify(keyword)
			if hit {
				bucket.Found = append(bucket.Found, keyword)
			} else {
				bucket.Missing = append(bucket.Missing, keyword)
			}

			if seen[key] {
				continue
			}
			seen[key] = true
			analysis.All = append(analysis.All, keyword)
			if hit {
				analysis.Found = append(analysis.Found, keyword)
			} else {
				analysis.Missing = append(analysis.Missing, keyword)
			}
		}
		analysis.Categories.Set(name, bucket)
	}

	// Keywords outside any category still count toward the overall sets.
	for _, keyword := range extracted.Keywords {
		key := normalizeKeywordKey(keyword)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		analysis.All = append(analysis.All, keyword)
		if classify(keyword) {
			analysis.Found = append(analysis.Found, keyword)
		} else {
			analysis.Missing = append(analysis.Missing, keyword)
		}
	}

	return analysis
}
